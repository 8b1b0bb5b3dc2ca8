// Package api provides HTTP handlers for the onboarding API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/onboarding"
	"github.com/ashureev/agent-onboarding/internal/profile"
	"github.com/go-chi/chi/v5"
)

const maxBodySize = 64 << 10

// Handler serves the onboarding, build and agent profile endpoints.
type Handler struct {
	svc    *onboarding.Service
	editor *profile.Editor
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *onboarding.Service, editor *profile.Editor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, editor: editor, logger: logger}
}

// RegisterRoutes registers the JSON and SSE routes under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/options", h.Options)
		r.Post("/onboarding", h.Submit)
		r.Post("/onboarding/preview", h.PreviewForm)
		r.Post("/onboarding/enrich", h.Enrich)

		r.Route("/builds/{agentID}", func(r chi.Router) {
			r.Use(identity.Middleware)
			r.Get("/", h.GetBuild)
			r.Delete("/", h.CancelBuild)
			r.Get("/events", h.BuildEvents)
		})

		r.Route("/agents/{agentID}", func(r chi.Router) {
			r.Use(identity.Middleware)
			r.Get("/", h.GetAgent)
			r.Put("/", h.SaveAgent)
			r.Get("/draft", h.GetDraft)
			r.Post("/preview", h.PreviewDraft)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a size-limited JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("empty request body")
	}
	return err
}
