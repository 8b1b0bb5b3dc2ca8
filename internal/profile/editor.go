// Package profile loads, edits and saves the agent record produced by a
// build, and renders it for display.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/metrics"
	"github.com/ashureev/agent-onboarding/internal/store"
)

var (
	// ErrAgentNotFound means no record exists yet for the agent. After a
	// timed-out build this is the expected, recoverable outcome.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrLoadFailed wraps a store failure while reading.
	ErrLoadFailed = errors.New("unable to load agent")

	// ErrSaveFailed wraps a store failure while writing. The caller's draft
	// is left untouched so the save can be retried.
	ErrSaveFailed = errors.New("unable to save agent")
)

// Editor reads and writes agent records through a store.
type Editor struct {
	repo   store.Repository
	logger *slog.Logger
}

// NewEditor creates an Editor.
func NewEditor(repo store.Repository, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{repo: repo, logger: logger}
}

// Load returns the latest record for agentID. It returns an error matching
// ErrAgentNotFound when there is none and ErrLoadFailed when the store query
// fails.
func (e *Editor) Load(ctx context.Context, agentID string) (*domain.AgentRecord, error) {
	rec, err := e.repo.GetLatestAgent(ctx, agentID)
	switch {
	case err == nil:
		metrics.IncreaseProfileLoadsTotalMetric(metrics.ProfileOK)
		return rec, nil
	case errors.Is(err, store.ErrRecordNotFound):
		e.logger.Warn("agent record not available yet", "agent_id", agentID)
		metrics.IncreaseProfileLoadsTotalMetric(metrics.ProfileNotFound)
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	default:
		e.logger.Error("failed to load agent", "agent_id", agentID, "error", err)
		metrics.IncreaseProfileLoadsTotalMetric(metrics.ProfileError)
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
}

// Save writes draft back to the record for agentID and returns the merged
// record. There is no automatic retry.
func (e *Editor) Save(ctx context.Context, agentID string, draft domain.EditableDraft) (*domain.AgentRecord, error) {
	patch := PatchFromDraft(draft)

	base := domain.AgentRecord{AgentID: agentID}
	if current, err := e.repo.GetLatestAgent(ctx, agentID); err == nil {
		base = *current
	}

	if err := e.repo.UpdateAgent(ctx, agentID, patch); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			metrics.IncreaseProfileSavesTotalMetric(metrics.ProfileNotFound)
			return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
		}
		e.logger.Error("failed to save agent", "agent_id", agentID, "error", err)
		metrics.IncreaseProfileSavesTotalMetric(metrics.ProfileError)
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	metrics.IncreaseProfileSavesTotalMetric(metrics.ProfileOK)
	e.logger.Info("agent profile saved", "agent_id", agentID)

	rec, err := e.repo.GetLatestAgent(ctx, agentID)
	if err != nil {
		// The write went through; merge the draft into the record read before it.
		e.logger.Warn("reload after save failed", "agent_id", agentID, "error", err)
		merged := base.Apply(patch)
		return &merged, nil
	}
	return rec, nil
}

// Draft loads the record for agentID and converts it for editing.
func (e *Editor) Draft(ctx context.Context, agentID string) (domain.EditableDraft, error) {
	rec, err := e.Load(ctx, agentID)
	if err != nil {
		return domain.EditableDraft{}, err
	}
	return ToEditableDraft(*rec), nil
}
