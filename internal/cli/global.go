// Package cli implements the onboardctl commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ashureev/agent-onboarding/internal/config"
	"github.com/ashureev/agent-onboarding/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GlobalOptions are the store and logging flags shared by every command.
// Unset flags fall back to the environment configuration.
type GlobalOptions struct {
	Store       string
	DBPath      string
	DatabaseURL string
	RESTURL     string
	RESTKey     string
	Table       string
	AutoMigrate bool
	Verbose     bool

	cfg *config.Config
	out io.Writer
}

// DefaultGlobalOptions returns the zero options; every store setting comes
// from the environment unless a flag is set.
func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{}
}

// Bind registers the global flags.
func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.Store, "store", o.Store, "Agent store backend: sqlite, postgres or rest (default from AGENT_STORE).")
	fs.StringVar(&o.DBPath, "db-path", o.DBPath, "SQLite database path (default from DB_PATH).")
	fs.StringVar(&o.DatabaseURL, "database-url", o.DatabaseURL, "Postgres connection URL (default from DATABASE_URL).")
	fs.StringVar(&o.RESTURL, "supabase-url", o.RESTURL, "PostgREST base URL (default from SUPABASE_URL).")
	fs.StringVar(&o.RESTKey, "supabase-key", o.RESTKey, "PostgREST API key (default from SUPABASE_ANON_KEY).")
	fs.StringVar(&o.Table, "table", o.Table, "Agent table for the rest store (default from AGENT_TABLE).")
	fs.BoolVar(&o.AutoMigrate, "migrate", o.AutoMigrate, "Apply schema migrations before running.")
	fs.BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "Log debug output to stderr.")
}

// Complete loads the environment configuration and applies flag overrides.
func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	o.out = cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	override(&cfg.Store.Backend, o.Store)
	override(&cfg.Store.DBPath, o.DBPath)
	override(&cfg.Store.DatabaseURL, o.DatabaseURL)
	override(&cfg.Store.RESTURL, o.RESTURL)
	override(&cfg.Store.RESTKey, o.RESTKey)
	override(&cfg.Store.Table, o.Table)
	if o.AutoMigrate {
		cfg.Store.AutoMigrate = true
	}
	o.cfg = cfg
	return nil
}

// Validate checks the merged configuration.
func (o *GlobalOptions) Validate(args []string) error {
	if o.cfg == nil {
		return fmt.Errorf("options not completed")
	}
	return o.cfg.Validate()
}

func (o *GlobalOptions) openStore(ctx context.Context) (store.Repository, error) {
	repo, err := store.Open(ctx, o.cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open agent store: %w", err)
	}
	return repo, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
