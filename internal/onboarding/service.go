// Package onboarding orchestrates a submission: it validates the form, starts
// the build session and fires the automation webhook.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ashureev/agent-onboarding/internal/automation"
	"github.com/ashureev/agent-onboarding/internal/build"
	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/poller"
	"github.com/ashureev/agent-onboarding/internal/validator"
)

// DefaultSessionTTL is how long finished sessions stay queryable.
const DefaultSessionTTL = 30 * time.Minute

// ConsentMessage is reported for gdprConsent when an EU visitor has not
// agreed to processing.
const ConsentMessage = "Please accept the privacy policy to continue"

var (
	// ErrInvalidForm is matched by every *ValidationError.
	ErrInvalidForm = errors.New("invalid onboarding form")

	// ErrSessionNotFound is returned for unknown or evicted build sessions.
	ErrSessionNotFound = errors.New("build session not found")
)

// ValidationError lists a message per invalid form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return ErrInvalidForm.Error() + ": " + strings.Join(keys, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidForm }

// Config wires a Service.
type Config struct {
	Submitter automation.Submitter
	Checker   poller.Checker
	Build     build.Config
	TTL       time.Duration
	Logger    *slog.Logger
}

// Service starts and tracks onboarding build sessions.
type Service struct {
	validator *validator.Validator
	submitter automation.Submitter
	checker   poller.Checker
	buildCfg  build.Config
	ttl       time.Duration
	registry  *Registry
	logger    *slog.Logger

	newID func() string
	now   func() time.Time
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		validator: validator.NewOnboardingValidator(),
		submitter: cfg.Submitter,
		checker:   cfg.Checker,
		buildCfg:  cfg.Build,
		ttl:       ttl,
		registry:  NewRegistry(),
		logger:    logger,
		newID:     identity.NewAgentID,
		now:       time.Now,
	}
}

// Validate checks form synchronously. EU visitors, detected from
// acceptLanguage, must have granted consent.
func (s *Service) Validate(form domain.OnboardingForm, acceptLanguage string) error {
	fields, err := s.validator.FieldErrors(form)
	if err != nil {
		return fmt.Errorf("validate form: %w", err)
	}
	if RequiresConsent(acceptLanguage) && !form.HasConsent() {
		if fields == nil {
			fields = make(map[string]string)
		}
		fields["gdprConsent"] = ConsentMessage
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Begin validates form, starts a build session under a fresh agent ID and
// submits the form in the background. Invalid input makes no network call.
// The build outlives ctx; use Cancel to stop it.
func (s *Service) Begin(ctx context.Context, form domain.OnboardingForm, acceptLanguage string) (string, error) {
	if err := s.Validate(form, acceptLanguage); err != nil {
		return "", err
	}

	sub := domain.OnboardingSubmission{
		AgentID:     s.newID(),
		Form:        form,
		SubmittedAt: s.now(),
	}
	logger := s.logger.With("agent_id", sub.AgentID)

	sess := &Session{AgentID: sub.AgentID, CreatedAt: sub.SubmittedAt}
	sess.Controller = build.New(s.checker, s.buildCfg,
		build.WithLogger(logger),
		build.OnComplete(func(build.Result) {
			sess.markFinished(s.now())
		}),
	)
	s.registry.Register(sess)

	bg := context.WithoutCancel(ctx)
	if err := sess.Controller.Start(bg, sub.AgentID); err != nil {
		s.registry.Remove(sess)
		return "", fmt.Errorf("start build: %w", err)
	}

	go func() {
		out := s.submitter.Submit(bg, sub)
		sess.setOutcome(out)
	}()

	logger.Info("onboarding started", "company", form.CompanyName)
	return sub.AgentID, nil
}

// Session returns the tracked session for agentID.
func (s *Service) Session(agentID string) (*Session, error) {
	sess, ok := s.registry.Get(agentID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Cancel stops and forgets the build for agentID. No completion fires after
// it returns.
func (s *Service) Cancel(agentID string) error {
	sess, ok := s.registry.Get(agentID)
	if !ok {
		return ErrSessionNotFound
	}
	sess.Controller.Cancel()
	s.registry.Remove(sess)
	return nil
}

// Shutdown cancels every running build.
func (s *Service) Shutdown() {
	for _, sess := range s.registry.Snapshot() {
		sess.Controller.Cancel()
		s.registry.Remove(sess)
	}
}

// ActiveSessions returns the number of tracked sessions.
func (s *Service) ActiveSessions() int {
	return s.registry.Len()
}
