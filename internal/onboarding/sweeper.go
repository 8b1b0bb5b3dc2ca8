package onboarding

import (
	"context"
	"log/slog"
	"time"
)

const sweepInterval = time.Minute

// StartSweeper runs a background goroutine that periodically evicts finished
// sessions older than the session TTL and cancels abandoned running ones.
func (s *Service) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("session sweeper started", "interval", sweepInterval, "ttl", s.ttl)

		for {
			select {
			case <-ticker.C:
				s.sweep(s.now())
			case <-ctx.Done():
				slog.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// sweep evicts sessions that finished more than ttl ago and cancels sessions
// still running ttl after their build should have ended.
func (s *Service) sweep(now time.Time) int {
	evicted := 0
	for _, sess := range s.registry.Snapshot() {
		finished := sess.FinishedAt()
		switch {
		case !finished.IsZero() && now.Sub(finished) > s.ttl:
		case finished.IsZero() && now.Sub(sess.CreatedAt) > s.ttl+s.buildCfg.TotalDuration:
			sess.Controller.Cancel()
			slog.Warn("cancelled abandoned build session", "agent_id", sess.AgentID, "age", now.Sub(sess.CreatedAt))
		default:
			continue
		}
		if s.registry.Remove(sess) {
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("session sweeper evicted sessions", "count", evicted)
	}
	return evicted
}
