// Package build runs the timed build-progress session shown while the
// automation service generates an agent.
package build

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/agent-onboarding/internal/metrics"
	"github.com/ashureev/agent-onboarding/internal/poller"
)

// State is the lifecycle state of a Controller.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StateCompleting State = "completing"
	StateDone       State = "done"
	StateCancelled  State = "cancelled"
)

// ErrNotIdle is returned by Start while a build is already active or finished.
var ErrNotIdle = errors.New("build controller is not idle")

// Config holds the build timings.
type Config struct {
	TotalDuration   time.Duration
	TickInterval    time.Duration
	CompletionDelay time.Duration
	FactInterval    time.Duration
	EarlyFloor      float64
	Poll            poller.Options
}

// DefaultConfig returns the production timings: 90s over 100ms ticks,
// early completion past 20%, a 500ms completion grace and 7.5s facts.
func DefaultConfig() Config {
	return Config{
		TotalDuration:   90 * time.Second,
		TickInterval:    100 * time.Millisecond,
		CompletionDelay: 500 * time.Millisecond,
		FactInterval:    7500 * time.Millisecond,
		EarlyFloor:      0.20,
		Poll: poller.Options{
			StartDelay:   poller.DefaultStartDelay,
			Interval:     poller.DefaultInterval,
			QueryTimeout: poller.DefaultQueryTimeout,
		},
	}
}

// Result is delivered once per completed build. AgentID is set even when the
// record was not found in time.
type Result struct {
	AgentID   string        `json:"agent_id"`
	Found     bool          `json:"found"`
	TimedOut  bool          `json:"timed_out"`
	Attempts  int           `json:"attempts"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMS int64         `json:"elapsed_ms"`
}

// Snapshot is a point-in-time view of a build.
type Snapshot struct {
	AgentID   string  `json:"agent_id"`
	State     State   `json:"state"`
	Progress  float64 `json:"progress"`
	FactIndex int     `json:"fact_index"`
	Fact      string  `json:"fact"`
	Found     bool    `json:"found"`
	Attempts  int     `json:"attempts"`
	Result    *Result `json:"result,omitempty"`
}

// Observer receives snapshots on every state or progress change. It is called
// with the controller lock held: it must not block and must not call back
// into the controller.
type Observer func(Snapshot)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// OnComplete registers the completion callback. It runs once per build,
// outside the controller lock.
func OnComplete(fn func(Result)) Option {
	return func(c *Controller) { c.onComplete = fn }
}

// Controller drives one build at a time: a progress ticker, a fact rotation
// and a poller for the agent record.
type Controller struct {
	checker    poller.Checker
	cfg        Config
	logger     *slog.Logger
	onComplete func(Result)

	mu            sync.Mutex
	state         State
	agentID       string
	tracker       tracker
	factIndex     int
	poller        *poller.Poller
	cancelRun     context.CancelFunc
	completeTimer *time.Timer
	startedAt     time.Time
	result        *Result
	done          chan struct{}
	observers     map[int]Observer
	nextObserver  int

	wg sync.WaitGroup
}

// New creates an idle controller that polls checker.
func New(checker poller.Checker, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		checker:   checker,
		cfg:       cfg,
		logger:    slog.Default(),
		state:     StateIdle,
		done:      make(chan struct{}),
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins a build for agentID. Cancelling ctx cancels the build.
func (c *Controller) Start(ctx context.Context, agentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrNotIdle
	}

	runCtx, cancel := context.WithCancel(ctx)
	pollOpts := c.cfg.Poll
	if pollOpts.Logger == nil {
		pollOpts.Logger = c.logger
	}

	c.state = StateRunning
	c.agentID = agentID
	c.tracker = newTracker(c.cfg.TotalDuration, c.cfg.TickInterval, c.cfg.EarlyFloor)
	c.factIndex = 0
	c.result = nil
	c.startedAt = time.Now()
	c.cancelRun = cancel
	c.done = make(chan struct{})
	c.poller = poller.New(c.checker, agentID, pollOpts)
	c.poller.Start(runCtx)

	c.logger.Info("build started", "agent_id", agentID, "total", c.cfg.TotalDuration)
	c.emitLocked()

	c.wg.Add(1)
	go c.run(runCtx, c.poller, c.done)
	return nil
}

func (c *Controller) run(ctx context.Context, p *poller.Poller, done chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	factInterval := c.cfg.FactInterval
	if factInterval <= 0 {
		factInterval = time.Hour
	}
	facts := time.NewTicker(factInterval)
	defer facts.Stop()

	foundC := p.FoundC()
	for {
		select {
		case <-ctx.Done():
			c.abort(done)
			return
		case <-foundC:
			foundC = nil
			if c.advance(false) {
				p.Stop()
				c.awaitFinish(ctx, done)
				return
			}
		case <-ticker.C:
			if c.advance(true) {
				p.Stop()
				c.awaitFinish(ctx, done)
				return
			}
		case <-facts.C:
			c.rotateFact()
		}
	}
}

// advance evaluates progress, stepping the tracker when step is set. It
// returns true once the run loop should exit.
func (c *Controller) advance(step bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return true
	}

	found := c.poller.Found()
	var complete, early bool
	if step {
		complete, early = c.tracker.tick(found)
	} else {
		complete, early = c.tracker.check(found)
	}
	if !complete {
		c.emitLocked()
		return false
	}

	c.state = StateCompleting
	c.logger.Info("build completing", "agent_id", c.agentID, "found", found, "early", early)
	c.completeTimer = time.AfterFunc(c.cfg.CompletionDelay, c.finish)
	c.emitLocked()
	return true
}

// finish moves completing to done and delivers the result exactly once.
func (c *Controller) finish() {
	c.mu.Lock()
	if c.state != StateCompleting {
		c.mu.Unlock()
		return
	}
	found := c.poller.Found()
	res := Result{
		AgentID:  c.agentID,
		Found:    found,
		TimedOut: !found,
		Attempts: c.poller.Attempts(),
		Elapsed:  time.Since(c.startedAt),
	}
	res.ElapsedMS = res.Elapsed.Milliseconds()
	c.state = StateDone
	c.result = &res
	c.completeTimer = nil
	c.cancelRun()
	c.emitLocked()
	done := c.done
	c.mu.Unlock()

	outcome := metrics.BuildFound
	if res.TimedOut {
		outcome = metrics.BuildTimeout
		c.logger.Warn("build timed out before agent record appeared", "agent_id", res.AgentID, "attempts", res.Attempts)
	} else {
		c.logger.Info("build complete", "agent_id", res.AgentID, "attempts", res.Attempts, "elapsed", res.Elapsed)
	}
	metrics.ObserveBuild(outcome, res.Elapsed)

	if c.onComplete != nil {
		c.onComplete(res)
	}
	close(done)
}

func (c *Controller) rotateFact() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning || len(Facts) == 0 {
		return
	}
	c.factIndex = (c.factIndex + 1) % len(Facts)
	c.emitLocked()
}

// Cancel stops an active build. When it returns every timer and the poller
// have stopped, no completion will fire and no observer will be called for
// this build. The controller is left idle. It returns false when there was
// nothing to cancel.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	p, ok := c.cancelLocked()
	c.mu.Unlock()
	if !ok {
		return false
	}
	p.Stop()
	c.wg.Wait()
	return true
}

// awaitFinish keeps the parent context watched through the completion grace
// period. finish cancels ctx itself, which abort then ignores.
func (c *Controller) awaitFinish(ctx context.Context, done chan struct{}) {
	select {
	case <-done:
	case <-ctx.Done():
		c.abort(done)
	}
}

// abort handles cancellation of the parent context for the build owning done.
func (c *Controller) abort(done chan struct{}) {
	c.mu.Lock()
	if c.done != done {
		c.mu.Unlock()
		return
	}
	p, ok := c.cancelLocked()
	c.mu.Unlock()
	if ok {
		p.Stop()
	}
}

func (c *Controller) cancelLocked() (*poller.Poller, bool) {
	if c.state != StateRunning && c.state != StateCompleting {
		return nil, false
	}
	if c.completeTimer != nil {
		c.completeTimer.Stop()
		c.completeTimer = nil
	}
	c.cancelRun()

	c.state = StateCancelled
	c.emitLocked()
	c.logger.Info("build cancelled", "agent_id", c.agentID, "progress", c.tracker.progress())
	metrics.ObserveBuild(metrics.BuildCancelled, time.Since(c.startedAt))

	p := c.poller
	close(c.done)
	c.state = StateIdle
	c.agentID = ""
	c.tracker = tracker{steps: 1}
	c.factIndex = 0
	c.observers = make(map[int]Observer)
	return p, true
}

// Subscribe registers an observer and returns a function removing it. The
// current snapshot is delivered immediately.
func (c *Controller) Subscribe(fn Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	fn(c.snapshotLocked())
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

func (c *Controller) emitLocked() {
	if len(c.observers) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, fn := range c.observers {
		fn(snap)
	}
}

// Snapshot returns the current view of the build.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		AgentID:   c.agentID,
		State:     c.state,
		Progress:  c.tracker.progress(),
		FactIndex: c.factIndex,
	}
	if c.state == StateIdle {
		s.Progress = 0
	}
	if len(Facts) > 0 {
		s.Fact = Facts[c.factIndex%len(Facts)]
	}
	if c.poller != nil && c.state != StateIdle {
		s.Found = c.poller.Found()
		s.Attempts = c.poller.Attempts()
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	return s
}

// Done is closed when the current build finishes or is cancelled.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Result returns the result of a finished build.
func (c *Controller) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}

// AgentID returns the agent of the current build.
func (c *Controller) AgentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agentID
}
