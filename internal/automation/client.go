// Package automation is the client of the workflow-automation webhook that
// generates agents from onboarding submissions.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ActionCreateAgent is the action tag of a submission.
const ActionCreateAgent = "create_agent"

// WebhookPath is appended to the configured base URL.
const WebhookPath = "/onboarding-chat"

var errUnexpectedStatus = errors.New("unexpected webhook status")

// ClientConfig holds configuration for the webhook client.
type ClientConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// DefaultClientConfig returns the local-development configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:        "http://localhost:5678/webhook",
		RequestTimeout: 30 * time.Second,
	}
}

// Outcome describes one webhook call. It never aborts the build flow: the
// agent store, not this response, decides completion.
type Outcome struct {
	StatusCode    int
	RemoteAgentID string
	Mismatch      bool
	Err           error
}

// Accepted reports whether the webhook answered 2xx.
func (o Outcome) Accepted() bool {
	return o.Err == nil && o.StatusCode >= 200 && o.StatusCode < 300
}

// Submitter sends onboarding submissions.
type Submitter interface {
	Submit(ctx context.Context, sub domain.OnboardingSubmission) Outcome
}

type requestBody struct {
	Action    string                `json:"action"`
	AgentID   string                `json:"agentId"`
	FormData  domain.OnboardingForm `json:"formData"`
	Timestamp string                `json:"timestamp"`
}

type responseBody struct {
	AgentID string `json:"agent_id"`
}

// Client posts submissions to the automation webhook.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a webhook client. Requests carry OpenTelemetry spans.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + WebhookPath,
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With("component", "automation"),
	}
}

// Endpoint returns the webhook URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit performs a single POST of sub. Every failure is logged and
// reported in the Outcome instead of being returned.
func (c *Client) Submit(ctx context.Context, sub domain.OnboardingSubmission) Outcome {
	out := c.submit(ctx, sub)

	switch {
	case out.Err != nil && out.StatusCode != 0:
		metrics.IncreaseSubmissionsTotalMetric(metrics.SubmissionRejected)
		c.logger.Error("webhook rejected submission", "agent_id", sub.AgentID, "status", out.StatusCode, "error", out.Err)
	case out.Err != nil:
		metrics.IncreaseSubmissionsTotalMetric(metrics.SubmissionFailed)
		c.logger.Error("webhook call failed", "agent_id", sub.AgentID, "error", out.Err)
	default:
		metrics.IncreaseSubmissionsTotalMetric(metrics.SubmissionAccepted)
		if out.Mismatch {
			c.logger.Warn("webhook returned a different agent id", "agent_id", sub.AgentID, "remote_agent_id", out.RemoteAgentID)
		}
		c.logger.Info("submission accepted", "agent_id", sub.AgentID, "status", out.StatusCode)
	}
	return out
}

func (c *Client) submit(ctx context.Context, sub domain.OnboardingSubmission) Outcome {
	ts := sub.SubmittedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	payload, err := json.Marshal(requestBody{
		Action:    ActionCreateAgent,
		AgentID:   sub.AgentID,
		FormData:  sub.Form,
		Timestamp: ts.UTC().Format("2006-01-02T15:04:05.000Z"),
	})
	if err != nil {
		return Outcome{Err: fmt.Errorf("encode submission: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Outcome{Err: fmt.Errorf("build webhook request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Err: fmt.Errorf("post webhook: %w", err)}
	}
	defer resp.Body.Close()

	out := Outcome{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		out.Err = fmt.Errorf("read webhook response: %w", err)
		return out
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		out.Err = fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
		return out
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return out
	}
	var rb responseBody
	if err := json.Unmarshal(body, &rb); err != nil {
		// Some workflows answer with plain text; the submission still counts.
		c.logger.Debug("webhook response is not json", "agent_id", sub.AgentID, "error", err)
		return out
	}
	out.RemoteAgentID = rb.AgentID
	out.Mismatch = rb.AgentID != "" && rb.AgentID != sub.AgentID
	return out
}
