package onboarding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/agent-onboarding/internal/automation"
	"github.com/ashureev/agent-onboarding/internal/build"
	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	subs  []domain.OnboardingSubmission
	calls chan struct{}
	out   automation.Outcome
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{calls: make(chan struct{}, 8), out: automation.Outcome{StatusCode: 200}}
}

func (f *fakeSubmitter) Submit(_ context.Context, sub domain.OnboardingSubmission) automation.Outcome {
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	f.calls <- struct{}{}
	return f.out
}

func (f *fakeSubmitter) submissions() []domain.OnboardingSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OnboardingSubmission(nil), f.subs...)
}

func fastBuild() build.Config {
	return build.Config{
		TotalDuration:   time.Second,
		TickInterval:    5 * time.Millisecond,
		CompletionDelay: 10 * time.Millisecond,
		FactInterval:    50 * time.Millisecond,
		EarlyFloor:      0.20,
		Poll: poller.Options{
			StartDelay:   time.Millisecond,
			Interval:     5 * time.Millisecond,
			QueryTimeout: time.Second,
		},
	}
}

func validForm() domain.OnboardingForm {
	return domain.OnboardingForm{
		FullName:            "Jane Doe",
		Email:               "jane@acme.test",
		CompanyName:         "Acme",
		WebsiteURL:          "https://acme.test",
		BusinessDescription: "We run a small dental clinic that books appointments for local families.",
	}
}

func newTestService(found bool) (*Service, *fakeSubmitter) {
	sub := newFakeSubmitter()
	checker := poller.CheckerFunc(func(context.Context, string) (bool, error) {
		return found, nil
	})
	svc := NewService(Config{
		Submitter: sub,
		Checker:   checker,
		Build:     fastBuild(),
		TTL:       time.Minute,
	})
	return svc, sub
}

func waitSubmitted(t *testing.T, sub *fakeSubmitter) {
	t.Helper()
	select {
	case <-sub.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("submission was not sent")
	}
}

func TestService_BeginStartsBuildAndSubmits(t *testing.T) {
	svc, sub := newTestService(true)
	defer svc.Shutdown()

	agentID, err := svc.Begin(context.Background(), validForm(), "en-US")
	require.NoError(t, err)
	assert.True(t, identity.IsValidAgentID(agentID))

	waitSubmitted(t, sub)
	subs := sub.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, agentID, subs[0].AgentID)
	assert.Equal(t, "Acme", subs[0].Form.CompanyName)

	sess, err := svc.Session(agentID)
	require.NoError(t, err)

	select {
	case <-sess.Controller.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("build did not finish")
	}
	res, ok := sess.Controller.Result()
	require.True(t, ok)
	assert.True(t, res.Found)
	assert.False(t, sess.FinishedAt().IsZero())

	out, ok := sess.Outcome()
	require.True(t, ok)
	assert.True(t, out.Accepted())
}

func TestService_WebhookFailureDoesNotAbortBuild(t *testing.T) {
	svc, sub := newTestService(true)
	defer svc.Shutdown()
	sub.out = automation.Outcome{StatusCode: 502, Err: errors.New("webhook returned 502")}

	agentID, err := svc.Begin(context.Background(), validForm(), "en-US")
	require.NoError(t, err)
	require.NotEmpty(t, agentID)
	waitSubmitted(t, sub)

	sess, err := svc.Session(agentID)
	require.NoError(t, err)
	select {
	case <-sess.Controller.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("build did not finish")
	}

	snap := sess.Controller.Snapshot()
	assert.Equal(t, build.StateDone, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, agentID, snap.Result.AgentID)

	require.Eventually(t, func() bool {
		_, ok := sess.Outcome()
		return ok
	}, time.Second, 5*time.Millisecond)
	out, _ := sess.Outcome()
	assert.False(t, out.Accepted())
	assert.Equal(t, 502, out.StatusCode)
}

func TestService_BeginOutlivesRequestContext(t *testing.T) {
	svc, sub := newTestService(false)
	defer svc.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	agentID, err := svc.Begin(ctx, validForm(), "")
	require.NoError(t, err)
	cancel()
	waitSubmitted(t, sub)

	sess, err := svc.Session(agentID)
	require.NoError(t, err)
	assert.Equal(t, build.StateRunning, sess.Controller.Snapshot().State)
}

func TestService_InvalidFormMakesNoCall(t *testing.T) {
	svc, sub := newTestService(true)

	form := validForm()
	form.Email = "not-an-email"
	form.BusinessDescription = "too short"

	_, err := svc.Begin(context.Background(), form, "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidForm))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Please enter a valid email address", verr.Fields["email"])
	assert.Contains(t, verr.Fields, "businessDescription")

	assert.Empty(t, sub.submissions())
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestService_ConsentRequiredForEULocales(t *testing.T) {
	svc, sub := newTestService(true)
	defer svc.Shutdown()

	_, err := svc.Begin(context.Background(), validForm(), "de-DE,de;q=0.9")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ConsentMessage, verr.Fields["gdprConsent"])
	assert.Empty(t, sub.submissions())

	form := validForm()
	yes := true
	form.GDPRConsent = &yes
	_, err = svc.Begin(context.Background(), form, "de-DE,de;q=0.9")
	require.NoError(t, err)
	waitSubmitted(t, sub)
}

func TestService_Cancel(t *testing.T) {
	svc, sub := newTestService(false)

	agentID, err := svc.Begin(context.Background(), validForm(), "")
	require.NoError(t, err)
	waitSubmitted(t, sub)

	require.NoError(t, svc.Cancel(agentID))
	_, err = svc.Session(agentID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Cancel(agentID), ErrSessionNotFound)
}

func TestService_SessionNotFound(t *testing.T) {
	svc, _ := newTestService(true)
	_, err := svc.Session("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_Sweep(t *testing.T) {
	svc, _ := newTestService(false)
	now := time.Now()

	finished := &Session{AgentID: "finished", Controller: build.New(nil, fastBuild()), CreatedAt: now.Add(-time.Hour)}
	finished.markFinished(now.Add(-2 * time.Minute))
	fresh := &Session{AgentID: "fresh", Controller: build.New(nil, fastBuild()), CreatedAt: now}
	fresh.markFinished(now)
	abandoned := &Session{AgentID: "abandoned", Controller: build.New(nil, fastBuild()), CreatedAt: now.Add(-time.Hour)}
	running := &Session{AgentID: "running", Controller: build.New(nil, fastBuild()), CreatedAt: now.Add(-10 * time.Second)}
	for _, s := range []*Session{finished, fresh, abandoned, running} {
		svc.registry.Register(s)
	}

	assert.Equal(t, 2, svc.sweep(now))
	_, err := svc.Session("finished")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Session("abandoned")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Session("fresh")
	assert.NoError(t, err)
	_, err = svc.Session("running")
	assert.NoError(t, err)
}

func TestRegistry_RegisterReplacesAndCancels(t *testing.T) {
	checker := poller.CheckerFunc(func(context.Context, string) (bool, error) { return false, nil })
	r := NewRegistry()

	first := &Session{AgentID: "a", Controller: build.New(checker, fastBuild())}
	require.NoError(t, first.Controller.Start(context.Background(), "a"))
	r.Register(first)

	second := &Session{AgentID: "a", Controller: build.New(checker, fastBuild())}
	r.Register(second)

	assert.Equal(t, build.StateIdle, first.Controller.Snapshot().State)
	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, second, got)

	assert.False(t, r.Remove(first), "stale session must not evict its replacement")
	assert.True(t, r.Remove(second))
	assert.Equal(t, 0, r.Len())
}
