// Package store provides persistence for agent records produced by the
// automation service.
package store

import (
	"context"
	"errors"

	"github.com/ashureev/agent-onboarding/internal/domain"
)

// ErrRecordNotFound is returned when no row matches the agent ID.
var ErrRecordNotFound = errors.New("agent record not found")

// Repository defines the interface for reading and editing agent records.
type Repository interface {
	// GetLatestAgent returns the most recently created record for agentID,
	// or ErrRecordNotFound when there is none.
	GetLatestAgent(ctx context.Context, agentID string) (*domain.AgentRecord, error)

	// AgentExists reports whether any record exists for agentID. It selects
	// only the agent_id column.
	AgentExists(ctx context.Context, agentID string) (bool, error)

	// UpdateAgent applies patch to every row with agentID. It returns
	// ErrRecordNotFound when no row matched.
	UpdateAgent(ctx context.Context, agentID string, patch domain.AgentPatch) error

	// CreateAgent inserts a record. A zero CreatedAt is set to now.
	CreateAgent(ctx context.Context, rec *domain.AgentRecord) error

	// Ping verifies connectivity and returns an error if the store is unreachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
