package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite. It backs local development
// and the CLI.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writers to keep SQLITE_BUSY rare
	retry   shared.RetryPolicy
}

// NewSQLite opens (creating if needed) the database at dbPath and applies the
// embedded migrations.
func NewSQLite(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(ctx, db, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, retry: shared.DefaultSQLiteRetry}, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetLatestAgent returns the newest record for agentID.
func (s *SQLiteStore) GetLatestAgent(ctx context.Context, agentID string) (*domain.AgentRecord, error) {
	query := `SELECT ` + selectList() + ` FROM agents
		WHERE agent_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`

	var row agentRow
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, agentID).Scan(row.dest(&createdAt)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent row: %w", err)
	}
	return row.record(time.UnixMilli(createdAt)), nil
}

// AgentExists reports whether a record for agentID has been written.
func (s *SQLiteStore) AgentExists(ctx context.Context, agentID string) (bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT agent_id FROM agents WHERE agent_id = ? ORDER BY created_at DESC LIMIT 1`, agentID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query agent existence: %w", err)
	}
	return true, nil
}

// UpdateAgent writes the non-nil patch fields to every row for agentID.
// Conflicts with other writers are retried with exponential backoff.
func (s *SQLiteStore) UpdateAgent(ctx context.Context, agentID string, patch domain.AgentPatch) error {
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
	for _, c := range cols {
		sets = append(sets, c.Name+" = ?")
		args = append(args, c.Value)
	}
	args = append(args, agentID)
	query := `UPDATE agents SET ` + strings.Join(sets, ", ") + ` WHERE agent_id = ?`

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var rows int64
	err := shared.Retry(ctx, s.retry, "update agent", shared.IsSQLiteConflictError, func() error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CreateAgent inserts rec.
func (s *SQLiteStore) CreateAgent(ctx context.Context, rec *domain.AgentRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(agentColumns)+1), ", ")
	query := `INSERT INTO agents (` + selectList() + `) VALUES (` + placeholders + `)`
	args := append(insertValues(rec), rec.CreatedAt.UnixMilli())

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return shared.Retry(ctx, s.retry, "insert agent", shared.IsSQLiteConflictError, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
