// Agent onboarding server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/agent-onboarding/internal/api"
	"github.com/ashureev/agent-onboarding/internal/automation"
	"github.com/ashureev/agent-onboarding/internal/config"
	"github.com/ashureev/agent-onboarding/internal/healthcheck"
	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/metrics"
	"github.com/ashureev/agent-onboarding/internal/middleware"
	"github.com/ashureev/agent-onboarding/internal/onboarding"
	"github.com/ashureev/agent-onboarding/internal/profile"
	"github.com/ashureev/agent-onboarding/internal/store"
	"github.com/ashureev/agent-onboarding/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Server.Port, "dev", cfg.IsDevelopment(), "store", cfg.Store.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		slog.Error("Failed to initialize agent store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Agent store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Agent store connected")

	// Initialize services.
	submitter := automation.NewClient(cfg.AutomationOptions(), logger)
	slog.Info("Automation webhook configured", "endpoint", submitter.Endpoint())

	svc := onboarding.NewService(onboarding.Config{
		Submitter: submitter,
		Checker:   repo,
		Build:     cfg.BuildOptions(),
		TTL:       cfg.Build.SessionTTL,
		Logger:    logger,
	})
	defer svc.Shutdown()
	editor := profile.NewEditor(repo, logger)

	// Initialize handlers.
	handler := api.NewHandler(svc, editor, logger)
	healthHandler := api.NewHealthHandler(repo, 5*time.Second, svc.ActiveSessions)
	wsHandler := api.NewWebSocketHandler(svc, cfg.Server.FrontendURL, cfg.IsDevelopment(), logger)

	metricsMiddleware := metrics.NewMiddleware("agent-onboarding")
	metricsMiddleware.MustRegister(nil)

	allowedOrigins := []string{"*"}
	if !cfg.IsDevelopment() {
		allowedOrigins = []string{cfg.Server.FrontendURL}
	}

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(metricsMiddleware.Handler)

	// Public routes.
	healthHandler.RegisterHealth(r)
	r.Handle("/metrics", metrics.Handler())
	handler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.With(identity.Middleware).Get("/ws/builds/{"+identity.URLParam+"}", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Note: SSE connections require long timeouts (no WriteTimeout)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start background workers.
	svc.StartSweeper(ctx)
	slog.Info("Session sweeper started", "session_ttl", cfg.Build.SessionTTL)

	var health *healthcheck.Server
	if cfg.Server.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCHealthAddr)
		if err != nil {
			slog.Error("Failed to listen for gRPC health", "addr", cfg.Server.GRPCHealthAddr, "error", err)
			os.Exit(1)
		}
		health = healthcheck.New(repo, 0, logger)
		health.StartWorker(ctx)
		go func() {
			slog.Info("gRPC health listening", "addr", lis.Addr().String())
			if err := health.Serve(lis); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if health != nil {
		health.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped successfully")
}
