package api

import (
	"errors"
	"net/http"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/onboarding"
)

type submitResponse struct {
	AgentID   string `json:"agent_id"`
	BuildURL  string `json:"build_url"`
	EventsURL string `json:"events_url"`
	SocketURL string `json:"ws_url"`
	AgentURL  string `json:"agent_url"`
}

// Submit validates the onboarding form, starts the build and fires the
// automation webhook in the background.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var form domain.OnboardingForm
	if err := decode(w, r, &form); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agentID, err := h.svc.Begin(r.Context(), form, r.Header.Get("Accept-Language"))
	if err != nil {
		var verr *onboarding.ValidationError
		if errors.As(err, &verr) {
			JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "invalid_form",
				"fields": verr.Fields,
			})
			return
		}
		h.logger.Error("failed to start onboarding", "error", err)
		Error(w, http.StatusInternalServerError, "onboarding_failed")
		return
	}

	JSON(w, http.StatusAccepted, submitResponse{
		AgentID:   agentID,
		BuildURL:  "/api/builds/" + agentID,
		EventsURL: "/api/builds/" + agentID + "/events",
		SocketURL: "/ws/builds/" + agentID,
		AgentURL:  agentURL(agentID),
	})
}

// PreviewForm returns the instant agent preview for a partially filled form.
func (h *Handler) PreviewForm(w http.ResponseWriter, r *http.Request) {
	var form domain.OnboardingForm
	if err := decode(w, r, &form); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	JSON(w, http.StatusOK, onboarding.Preview(form))
}

type enrichRequest struct {
	WebsiteURL string `json:"websiteUrl"`
}

// Enrich suggests Instagram, LinkedIn and description values from the
// prospect's website.
func (h *Handler) Enrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := onboarding.Enrich(req.WebsiteURL)
	if err != nil {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "invalid_form",
			"fields": map[string]string{"websiteUrl": "Please enter a valid website URL"},
		})
		return
	}
	JSON(w, http.StatusOK, e)
}

// Options returns the option lists used by the profile editor and whether
// the caller's locale needs the consent checkbox.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"options":          domain.Options(),
		"requires_consent": onboarding.RequiresConsent(r.Header.Get("Accept-Language")),
	})
}
