package build

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ashureev/agent-onboarding/internal/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	found atomic.Bool
	calls atomic.Int32
}

func (f *fakeStore) AgentExists(context.Context, string) (bool, error) {
	f.calls.Add(1)
	return f.found.Load(), nil
}

func fastConfig(total time.Duration) Config {
	return Config{
		TotalDuration:   total,
		TickInterval:    5 * time.Millisecond,
		CompletionDelay: 20 * time.Millisecond,
		FactInterval:    15 * time.Millisecond,
		EarlyFloor:      0.20,
		Poll: poller.Options{
			StartDelay:   time.Millisecond,
			Interval:     5 * time.Millisecond,
			QueryTimeout: time.Second,
		},
	}
}

type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) complete(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func waitDone(t *testing.T, c *Controller, within time.Duration) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(within):
		t.Fatalf("build did not finish within %s", within)
	}
}

func TestController_EarlyCompletionWhenFound(t *testing.T) {
	fs := &fakeStore{}
	fs.found.Store(true)
	rec := &recorder{}
	c := New(fs, fastConfig(2*time.Second), OnComplete(rec.complete))

	require.NoError(t, c.Start(context.Background(), "agent-1"))
	waitDone(t, c, 2*time.Second)

	require.Equal(t, 1, rec.count())
	res := rec.results[0]
	assert.Equal(t, "agent-1", res.AgentID)
	assert.True(t, res.Found)
	assert.False(t, res.TimedOut)
	assert.Less(t, res.Elapsed, 2*time.Second, "completed before the full duration")

	snap := c.Snapshot()
	assert.Equal(t, StateDone, snap.State)
	assert.Equal(t, 1.0, snap.Progress)
	require.NotNil(t, snap.Result)
}

func TestController_TimeoutCompletesExactlyOnce(t *testing.T) {
	fs := &fakeStore{}
	rec := &recorder{}
	c := New(fs, fastConfig(100*time.Millisecond), OnComplete(rec.complete))

	require.NoError(t, c.Start(context.Background(), "agent-2"))
	waitDone(t, c, 2*time.Second)
	time.Sleep(60 * time.Millisecond)

	require.Equal(t, 1, rec.count())
	res := rec.results[0]
	assert.Equal(t, "agent-2", res.AgentID)
	assert.False(t, res.Found)
	assert.True(t, res.TimedOut)
	assert.GreaterOrEqual(t, res.Elapsed, 100*time.Millisecond)
	assert.Positive(t, res.Attempts)

	r, ok := c.Result()
	require.True(t, ok)
	assert.Equal(t, res, r)
}

func TestController_CancelSuppressesCompletion(t *testing.T) {
	fs := &fakeStore{}
	rec := &recorder{}
	c := New(fs, fastConfig(200*time.Millisecond), OnComplete(rec.complete))

	var afterCancel atomic.Int32
	var cancelled atomic.Bool
	require.NoError(t, c.Start(context.Background(), "agent-3"))
	c.Subscribe(func(s Snapshot) {
		if cancelled.Load() {
			afterCancel.Add(1)
		}
	})

	require.Eventually(t, func() bool {
		p := c.Snapshot().Progress
		return p > 0.1 && p < 0.9
	}, time.Second, time.Millisecond)

	require.True(t, c.Cancel())
	cancelled.Store(true)
	callsAtCancel := fs.calls.Load()

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, int32(0), afterCancel.Load())
	assert.Equal(t, callsAtCancel, fs.calls.Load(), "poller stopped")
	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.Equal(t, 0.0, c.Snapshot().Progress)
	_, ok := c.Result()
	assert.False(t, ok)

	assert.False(t, c.Cancel(), "nothing left to cancel")
}

func TestController_CancelDuringCompletionGrace(t *testing.T) {
	fs := &fakeStore{}
	fs.found.Store(true)
	rec := &recorder{}
	cfg := fastConfig(time.Second)
	cfg.CompletionDelay = 200 * time.Millisecond
	c := New(fs, cfg, OnComplete(rec.complete))

	require.NoError(t, c.Start(context.Background(), "agent-4"))
	require.Eventually(t, func() bool { return c.Snapshot().State == StateCompleting }, time.Second, time.Millisecond)
	require.True(t, c.Cancel())

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestController_ParentCancelDuringCompletionGrace(t *testing.T) {
	fs := &fakeStore{}
	fs.found.Store(true)
	rec := &recorder{}
	cfg := fastConfig(time.Second)
	cfg.CompletionDelay = 200 * time.Millisecond
	c := New(fs, cfg, OnComplete(rec.complete))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx, "agent-4b"))
	require.Eventually(t, func() bool { return c.Snapshot().State == StateCompleting }, time.Second, time.Millisecond)
	done := c.Done()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("build was not cancelled by its parent context")
	}
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, StateIdle, c.Snapshot().State)
	_, ok := c.Result()
	assert.False(t, ok)
}

func TestController_ResultReportsElapsedMilliseconds(t *testing.T) {
	fs := &fakeStore{}
	fs.found.Store(true)
	c := New(fs, fastConfig(time.Second))

	require.NoError(t, c.Start(context.Background(), "agent-4c"))
	waitDone(t, c, 2*time.Second)

	snap := c.Snapshot()
	require.NotNil(t, snap.Result)
	body, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded struct {
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, float64(snap.Result.Elapsed.Milliseconds()), decoded.Result["elapsed_ms"])
	assert.Positive(t, decoded.Result["elapsed_ms"])
	assert.NotContains(t, decoded.Result, "elapsed")
}

func TestController_ParentContextCancels(t *testing.T) {
	fs := &fakeStore{}
	rec := &recorder{}
	c := New(fs, fastConfig(time.Second), OnComplete(rec.complete))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx, "agent-5"))
	cancel()
	waitDone(t, c, time.Second)

	assert.Eventually(t, func() bool { return c.Snapshot().State == StateIdle }, time.Second, time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestController_StartTwice(t *testing.T) {
	c := New(&fakeStore{}, fastConfig(time.Second))
	require.NoError(t, c.Start(context.Background(), "agent-6"))
	defer c.Cancel()
	assert.ErrorIs(t, c.Start(context.Background(), "agent-7"), ErrNotIdle)
	assert.Equal(t, "agent-6", c.AgentID())
}

func TestController_FactsRotate(t *testing.T) {
	c := New(&fakeStore{}, fastConfig(time.Second))
	require.NoError(t, c.Start(context.Background(), "agent-8"))
	defer c.Cancel()

	require.Eventually(t, func() bool { return c.Snapshot().FactIndex > 0 }, time.Second, time.Millisecond)
	s := c.Snapshot()
	assert.Equal(t, Facts[s.FactIndex], s.Fact)
}
