package api

import (
	"errors"
	"net/http"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/profile"
)

func agentURL(agentID string) string {
	return "/api/agents/" + agentID
}

type agentResponse struct {
	Agent   *domain.AgentRecord `json:"agent"`
	Summary profile.Summary     `json:"summary"`
}

// loadError maps a profile error to a recoverable response. Both cases carry
// the URL to retry once the automation service has written the record.
func (h *Handler) loadError(w http.ResponseWriter, agentID string, err error) {
	switch {
	case errors.Is(err, profile.ErrAgentNotFound):
		JSON(w, http.StatusNotFound, map[string]string{
			"error":     "agent_not_found",
			"agent_id":  agentID,
			"retry_url": agentURL(agentID),
		})
	case errors.Is(err, profile.ErrLoadFailed):
		JSON(w, http.StatusBadGateway, map[string]string{
			"error":     "unable_to_load",
			"agent_id":  agentID,
			"retry_url": agentURL(agentID),
		})
	default:
		h.logger.Error("unexpected profile error", "agent_id", agentID, "error", err)
		Error(w, http.StatusInternalServerError, "internal_error")
	}
}

// GetAgent returns the agent record with its display summary.
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	agentID := identity.AgentIDFromContext(r.Context())
	rec, err := h.editor.Load(r.Context(), agentID)
	if err != nil {
		h.loadError(w, agentID, err)
		return
	}
	JSON(w, http.StatusOK, agentResponse{Agent: rec, Summary: profile.Summarize(*rec)})
}

// GetDraft returns the record converted for editing.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	agentID := identity.AgentIDFromContext(r.Context())
	draft, err := h.editor.Draft(r.Context(), agentID)
	if err != nil {
		h.loadError(w, agentID, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"draft":     draft,
		"narrative": profile.DraftNarrative(draft),
	})
}

// PreviewDraft renders the narrative of an unsaved draft.
func (h *Handler) PreviewDraft(w http.ResponseWriter, r *http.Request) {
	var draft domain.EditableDraft
	if err := decode(w, r, &draft); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"narrative": profile.DraftNarrative(draft)})
}

// SaveAgent writes the draft back and returns the merged record.
func (h *Handler) SaveAgent(w http.ResponseWriter, r *http.Request) {
	agentID := identity.AgentIDFromContext(r.Context())

	var draft domain.EditableDraft
	if err := decode(w, r, &draft); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.editor.Save(r.Context(), agentID, draft)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, agentResponse{Agent: rec, Summary: profile.Summarize(*rec)})
	case errors.Is(err, profile.ErrAgentNotFound):
		JSON(w, http.StatusNotFound, map[string]string{
			"error":     "agent_not_found",
			"agent_id":  agentID,
			"retry_url": agentURL(agentID),
		})
	case errors.Is(err, profile.ErrSaveFailed):
		Error(w, http.StatusBadGateway, "unable_to_save")
	default:
		h.logger.Error("unexpected save error", "agent_id", agentID, "error", err)
		Error(w, http.StatusInternalServerError, "internal_error")
	}
}
