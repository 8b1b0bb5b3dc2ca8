package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/agent-onboarding/internal/domain"
)

// RESTStore implements Repository against a PostgREST endpoint, the HTTP
// interface of a hosted Supabase project.
type RESTStore struct {
	baseURL string
	table   string
	apiKey  string
	client  *http.Client
}

// RESTOptions configures a RESTStore.
type RESTOptions struct {
	BaseURL string
	APIKey  string
	Table   string
	Client  *http.Client
}

// NewREST creates a PostgREST-backed repository. No request is made until
// the first call.
func NewREST(opts RESTOptions) (*RESTStore, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("rest store: base url is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("rest store: parse base url: %w", err)
	}
	if opts.Table == "" {
		opts.Table = "agents"
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RESTStore{
		baseURL: strings.TrimRight(opts.BaseURL, "/") + "/rest/v1/",
		table:   opts.Table,
		apiKey:  opts.APIKey,
		client:  opts.Client,
	}, nil
}

func (s *RESTStore) endpoint(q url.Values) string {
	return s.baseURL + url.PathEscape(s.table) + "?" + q.Encode()
}

func (s *RESTStore) do(ctx context.Context, method, target string, body any, prefer string, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, s.table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s", method, s.table, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Ping issues a minimal select against the table.
func (s *RESTStore) Ping(ctx context.Context) error {
	q := url.Values{"select": {"agent_id"}, "limit": {"1"}}
	var rows []struct{}
	return s.do(ctx, http.MethodGet, s.endpoint(q), nil, "", &rows)
}

// GetLatestAgent returns the newest record for agentID.
func (s *RESTStore) GetLatestAgent(ctx context.Context, agentID string) (*domain.AgentRecord, error) {
	q := url.Values{
		"select":   {"*"},
		"agent_id": {"eq." + agentID},
		"order":    {"created_at.desc"},
		"limit":    {"1"},
	}
	var rows []domain.AgentRecord
	if err := s.do(ctx, http.MethodGet, s.endpoint(q), nil, "", &rows); err != nil {
		return nil, fmt.Errorf("select agent: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrRecordNotFound
	}
	return &rows[0], nil
}

// AgentExists reports whether a record for agentID has been written.
func (s *RESTStore) AgentExists(ctx context.Context, agentID string) (bool, error) {
	q := url.Values{
		"select":   {"agent_id"},
		"agent_id": {"eq." + agentID},
		"order":    {"created_at.desc"},
		"limit":    {"1"},
	}
	var rows []struct {
		AgentID string `json:"agent_id"`
	}
	if err := s.do(ctx, http.MethodGet, s.endpoint(q), nil, "", &rows); err != nil {
		return false, fmt.Errorf("query agent existence: %w", err)
	}
	return len(rows) > 0, nil
}

// UpdateAgent PATCHes the rows for agentID and counts the returned
// representation to detect a missing record.
func (s *RESTStore) UpdateAgent(ctx context.Context, agentID string, patch domain.AgentPatch) error {
	if patch.IsEmpty() {
		ok, err := s.AgentExists(ctx, agentID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRecordNotFound
		}
		return nil
	}

	q := url.Values{"agent_id": {"eq." + agentID}, "select": {"agent_id"}}
	var rows []struct {
		AgentID string `json:"agent_id"`
	}
	if err := s.do(ctx, http.MethodPatch, s.endpoint(q), patch, "return=representation", &rows); err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	if len(rows) == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CreateAgent inserts rec.
func (s *RESTStore) CreateAgent(ctx context.Context, rec *domain.AgentRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := s.do(ctx, http.MethodPost, s.endpoint(url.Values{}), rec, "return=minimal", nil); err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// Close is a no-op; the HTTP client owns no per-store resources.
func (s *RESTStore) Close() error {
	return nil
}
