// Package healthcheck exposes the store's reachability through the standard
// gRPC health service.
package healthcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// StoreService is the health service name reporting store reachability.
const StoreService = "agent-onboarding.store"

const defaultInterval = 15 * time.Second

// Pinger is implemented by store.Repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves grpc.health.v1.Health. The overall status ("") follows the
// store status.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a health server probing pinger every interval.
func New(pinger Pinger, interval time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(StoreService, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		grpc:     gs,
		health:   hs,
		pinger:   pinger,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger.With("component", "healthcheck"),
	}
}

// Check pings the store once and updates the served status.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.Warn("store ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(StoreService, status)
	s.health.SetServingStatus("", status)
	return status
}

// StartWorker checks immediately and then on every interval until ctx is done.
func (s *Server) StartWorker(ctx context.Context) {
	s.Check(ctx)
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Check(ctx)
			case <-ctx.Done():
				s.health.Shutdown()
				return
			}
		}
	}()
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server listening", "address", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("serve grpc health: %w", err)
	}
	return nil
}

// Stop drains in-flight RPCs and stops the server.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}
