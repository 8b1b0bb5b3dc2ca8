package shared

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy bounds a retry loop with exponential backoff.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultSQLiteRetry is used for single-writer SQLite statements:
// 50ms, 100ms between three attempts.
var DefaultSQLiteRetry = RetryPolicy{Attempts: 3, BaseDelay: 50 * time.Millisecond}

// Retry runs fn until it succeeds, returns an error for which retryable is
// false, the attempts are exhausted, or ctx is done.
func Retry(ctx context.Context, p RetryPolicy, op string, retryable func(error) bool, fn func() error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	var err error
	for i := 0; i < p.Attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) || i == p.Attempts-1 {
			break
		}

		delay := p.BaseDelay * time.Duration(1<<i)
		slog.Debug("retrying after conflict", "op", op, "attempt", i+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
