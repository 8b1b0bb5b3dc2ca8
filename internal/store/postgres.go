package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Repository on a Postgres database such as the
// one behind a hosted Supabase project.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL. When migrate is true the embedded
// migrations are applied; hosted deployments usually own their schema.
func NewPostgres(ctx context.Context, databaseURL string, migrate bool) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		db := stdlib.OpenDBFromPool(pool)
		err := Migrate(ctx, db, "postgres")
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetLatestAgent returns the newest record for agentID.
func (s *PostgresStore) GetLatestAgent(ctx context.Context, agentID string) (*domain.AgentRecord, error) {
	query := `SELECT ` + selectList() + ` FROM agents
		WHERE agent_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	var row agentRow
	var createdAt time.Time
	err := s.pool.QueryRow(ctx, query, agentID).Scan(row.dest(&createdAt)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent row: %w", err)
	}
	return row.record(createdAt), nil
}

// AgentExists reports whether a record for agentID has been written.
func (s *PostgresStore) AgentExists(ctx context.Context, agentID string) (bool, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT agent_id FROM agents WHERE agent_id = $1 ORDER BY created_at DESC LIMIT 1`, agentID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query agent existence: %w", err)
	}
	return true, nil
}

// UpdateAgent writes the non-nil patch fields to every row for agentID.
func (s *PostgresStore) UpdateAgent(ctx context.Context, agentID string, patch domain.AgentPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		ok, err := s.AgentExists(ctx, agentID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRecordNotFound
		}
		return nil
	}

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, c.Name+" = $"+strconv.Itoa(i+1))
		args = append(args, c.Value)
	}
	args = append(args, agentID)
	query := `UPDATE agents SET ` + strings.Join(sets, ", ") + ` WHERE agent_id = $` + strconv.Itoa(len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CreateAgent inserts rec.
func (s *PostgresStore) CreateAgent(ctx context.Context, rec *domain.AgentRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	n := len(agentColumns) + 1
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	query := `INSERT INTO agents (` + selectList() + `) VALUES (` + strings.Join(placeholders, ", ") + `)`
	args := append(insertValues(rec), rec.CreatedAt)

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
