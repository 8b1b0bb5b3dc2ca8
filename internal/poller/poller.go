// Package poller watches the agent store for the record the automation
// service writes asynchronously after a submission.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ashureev/agent-onboarding/internal/metrics"
)

// Defaults tuned to the automation service's observed processing time.
const (
	DefaultStartDelay   = 10 * time.Second
	DefaultInterval     = 5 * time.Second
	DefaultQueryTimeout = 5 * time.Second
)

// Checker reports whether a record for agentID exists.
type Checker interface {
	AgentExists(ctx context.Context, agentID string) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, agentID string) (bool, error)

// AgentExists calls f.
func (f CheckerFunc) AgentExists(ctx context.Context, agentID string) (bool, error) {
	return f(ctx, agentID)
}

// Options configures a Poller. A zero StartDelay checks immediately; a
// negative one and any other unset duration take the defaults.
type Options struct {
	StartDelay   time.Duration
	Interval     time.Duration
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Poller checks for an agent record after a grace delay and then at a fixed
// interval until the record is found or the poller is stopped. The found
// flag never resets.
type Poller struct {
	checker Checker
	agentID string
	opts    Options
	logger  *slog.Logger

	found    atomic.Bool
	attempts atomic.Int64
	foundCh  chan struct{}

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a poller for agentID. Call Start to begin.
func New(checker Checker, agentID string, opts Options) *Poller {
	if opts.StartDelay < 0 {
		opts.StartDelay = DefaultStartDelay
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		checker: checker,
		agentID: agentID,
		opts:    opts,
		logger:  logger.With("agent_id", agentID),
		foundCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the polling goroutine. Calling Start more than once has no
// effect.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	delay := time.NewTimer(p.opts.StartDelay)
	select {
	case <-ctx.Done():
		delay.Stop()
		return
	case <-delay.C:
	}

	if p.check(ctx) {
		return
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.check(ctx) {
				return
			}
		}
	}
}

// check runs one attempt and returns true when polling should end.
func (p *Poller) check(ctx context.Context) bool {
	if p.found.Load() {
		return true
	}
	if ctx.Err() != nil {
		return true
	}

	attempt := p.attempts.Add(1)
	qctx, cancel := context.WithTimeout(ctx, p.opts.QueryTimeout)
	ok, err := p.checker.AgentExists(qctx, p.agentID)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.Warn("agent poll failed", "attempt", attempt, "error", err)
		metrics.IncreasePollAttemptsTotalMetric(metrics.PollError)
		return false
	}
	if !ok {
		p.logger.Debug("agent not ready", "attempt", attempt)
		metrics.IncreasePollAttemptsTotalMetric(metrics.PollNotFound)
		return false
	}

	if p.found.CompareAndSwap(false, true) {
		close(p.foundCh)
	}
	p.logger.Info("agent record found", "attempt", attempt)
	metrics.IncreasePollAttemptsTotalMetric(metrics.PollFound)
	return true
}

// Found reports whether an attempt has found the record.
func (p *Poller) Found() bool {
	return p.found.Load()
}

// FoundC is closed when the record is found.
func (p *Poller) FoundC() <-chan struct{} {
	return p.foundCh
}

// Attempts returns the number of queries issued so far.
func (p *Poller) Attempts() int {
	return int(p.attempts.Load())
}

// Stop cancels polling and waits for an in-flight query to return. It is
// safe to call more than once and before Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	started := p.started
	cancel := p.cancel
	p.started = true
	p.mu.Unlock()

	if !started {
		close(p.done)
		return
	}
	if cancel != nil {
		cancel()
	}
	<-p.done
}
