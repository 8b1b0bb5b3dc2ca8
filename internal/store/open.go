package store

import (
	"context"
	"fmt"
	"net/http"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendREST     = "rest"
)

// Options selects and configures a Repository backend.
type Options struct {
	Backend     string
	SQLitePath  string
	DatabaseURL string
	AutoMigrate bool
	RESTURL     string
	RESTKey     string
	Table       string
	HTTPClient  *http.Client
}

// Open returns the repository for opts.Backend.
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		return NewSQLite(ctx, opts.SQLitePath)
	case BackendPostgres:
		return NewPostgres(ctx, opts.DatabaseURL, opts.AutoMigrate)
	case BackendREST:
		return NewREST(RESTOptions{
			BaseURL: opts.RESTURL,
			APIKey:  opts.RESTKey,
			Table:   opts.Table,
			Client:  opts.HTTPClient,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
