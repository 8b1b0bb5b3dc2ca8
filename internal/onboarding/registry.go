package onboarding

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/agent-onboarding/internal/automation"
	"github.com/ashureev/agent-onboarding/internal/build"
	"github.com/ashureev/agent-onboarding/internal/metrics"
)

// Session is one build attempt tracked by the service.
type Session struct {
	AgentID    string
	Controller *build.Controller
	CreatedAt  time.Time

	mu         sync.Mutex
	outcome    *automation.Outcome
	finishedAt time.Time
}

// Outcome returns the webhook outcome once the submission has returned.
func (s *Session) Outcome() (automation.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return automation.Outcome{}, false
	}
	return *s.outcome, true
}

func (s *Session) setOutcome(o automation.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = &o
}

func (s *Session) markFinished(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishedAt = at
}

// FinishedAt returns when the build completed; zero while running.
func (s *Session) FinishedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedAt
}

// Registry holds build sessions keyed by agent ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Get returns the session for agentID.
func (r *Registry) Get(agentID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[agentID]
	return s, ok
}

// Register adds s, cancelling any session it replaces.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	existing, exists := r.sessions[s.AgentID]
	r.sessions[s.AgentID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	if exists && existing != s {
		existing.Controller.Cancel()
	}
	metrics.UpdateActiveBuildsMetric(n)
	slog.Info("build session registered", "agent_id", s.AgentID)
}

// Remove deletes the session for agentID if it is still s.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()
	current, ok := r.sessions[s.AgentID]
	if ok && current == s {
		delete(r.sessions, s.AgentID)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if ok && current == s {
		metrics.UpdateActiveBuildsMetric(n)
		slog.Info("build session removed", "agent_id", s.AgentID)
		return true
	}
	return false
}

// Snapshot returns the tracked sessions.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
