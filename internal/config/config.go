// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ashureev/agent-onboarding/internal/automation"
	"github.com/ashureev/agent-onboarding/internal/build"
	"github.com/ashureev/agent-onboarding/internal/poller"
	"github.com/ashureev/agent-onboarding/internal/store"
	"github.com/ashureev/agent-onboarding/internal/validator"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Automation AutomationConfig
	Build      BuildConfig
}

// ServerConfig controls the HTTP and gRPC listeners.
type ServerConfig struct {
	Port           string `envconfig:"PORT" default:"8080" validate:"required"`
	FrontendURL    string `envconfig:"FRONTEND_URL" default:""`
	GRPCHealthAddr string `envconfig:"GRPC_HEALTH_ADDR" default:""`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// StoreConfig selects the agent store backend.
type StoreConfig struct {
	Backend     string `envconfig:"AGENT_STORE" default:"sqlite" validate:"oneof=sqlite postgres rest"`
	DBPath      string `envconfig:"DB_PATH" default:"./data/agents.db"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	AutoMigrate bool   `envconfig:"STORE_AUTO_MIGRATE" default:"false"`
	RESTURL     string `envconfig:"SUPABASE_URL" default:""`
	RESTKey     string `envconfig:"SUPABASE_ANON_KEY" default:""`
	Table       string `envconfig:"AGENT_TABLE" default:"agents"`
}

// AutomationConfig locates the workflow-automation webhook.
type AutomationConfig struct {
	BaseURL string        `envconfig:"AUTOMATION_BASE_URL" default:"http://localhost:5678/webhook" validate:"required,url"`
	Timeout time.Duration `envconfig:"AUTOMATION_TIMEOUT" default:"30s" validate:"gt=0"`
}

// BuildConfig holds the build progress and polling timings.
type BuildConfig struct {
	TotalDuration   time.Duration `envconfig:"BUILD_TOTAL_DURATION" default:"90s" validate:"gt=0"`
	TickInterval    time.Duration `envconfig:"BUILD_TICK_INTERVAL" default:"100ms" validate:"gt=0"`
	CompletionDelay time.Duration `envconfig:"BUILD_COMPLETION_DELAY" default:"500ms" validate:"gte=0"`
	FactInterval    time.Duration `envconfig:"BUILD_FACT_INTERVAL" default:"7500ms" validate:"gt=0"`
	EarlyFloor      float64       `envconfig:"BUILD_EARLY_FLOOR" default:"0.2" validate:"gte=0,lt=1"`
	SessionTTL      time.Duration `envconfig:"BUILD_SESSION_TTL" default:"30m" validate:"gt=0"`

	PollStartDelay   time.Duration `envconfig:"POLL_START_DELAY" default:"10s" validate:"gte=0"`
	PollInterval     time.Duration `envconfig:"POLL_INTERVAL" default:"5s" validate:"gt=0"`
	PollQueryTimeout time.Duration `envconfig:"POLL_QUERY_TIMEOUT" default:"5s" validate:"gt=0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks field constraints and backend requirements.
func (c *Config) Validate() error {
	errs, err := validator.NewValidator().FieldErrors(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for f, msg := range errs {
			fields = append(fields, f+": "+msg)
		}
		sort.Strings(fields)
		return errors.New(strings.Join(fields, "; "))
	}

	switch c.Store.Backend {
	case store.BackendSQLite:
		if c.Store.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case store.BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case store.BackendREST:
		if c.Store.RESTURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the rest store")
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.FrontendURL == "" ||
		strings.Contains(c.Server.FrontendURL, "localhost") ||
		strings.Contains(c.Server.FrontendURL, "127.0.0.1")
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Server.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StoreOptions returns the store.Open options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.Store.Backend,
		SQLitePath:  c.Store.DBPath,
		DatabaseURL: c.Store.DatabaseURL,
		AutoMigrate: c.Store.AutoMigrate,
		RESTURL:     c.Store.RESTURL,
		RESTKey:     c.Store.RESTKey,
		Table:       c.Store.Table,
	}
}

// AutomationOptions returns the webhook client configuration.
func (c *Config) AutomationOptions() automation.ClientConfig {
	return automation.ClientConfig{
		BaseURL:        c.Automation.BaseURL,
		RequestTimeout: c.Automation.Timeout,
	}
}

// BuildOptions returns the build controller timings.
func (c *Config) BuildOptions() build.Config {
	return build.Config{
		TotalDuration:   c.Build.TotalDuration,
		TickInterval:    c.Build.TickInterval,
		CompletionDelay: c.Build.CompletionDelay,
		FactInterval:    c.Build.FactInterval,
		EarlyFloor:      c.Build.EarlyFloor,
		Poll: poller.Options{
			StartDelay:   c.Build.PollStartDelay,
			Interval:     c.Build.PollInterval,
			QueryTimeout: c.Build.PollQueryTimeout,
		},
	}
}
