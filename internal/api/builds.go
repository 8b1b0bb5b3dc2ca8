package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ashureev/agent-onboarding/internal/build"
	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/onboarding"
)

const (
	sseRetryDelay        = 3 * time.Second
	sseKeepaliveInterval = 10 * time.Second
)

// submissionStatus reports how the automation webhook answered.
type submissionStatus struct {
	StatusCode    int    `json:"status_code,omitempty"`
	Accepted      bool   `json:"accepted"`
	RemoteAgentID string `json:"remote_agent_id,omitempty"`
	Mismatch      bool   `json:"mismatch,omitempty"`
	Error         string `json:"error,omitempty"`
}

type buildResponse struct {
	build.Snapshot
	Submission *submissionStatus `json:"submission,omitempty"`
	AgentURL   string            `json:"agent_url"`
}

func newBuildResponse(sess *onboarding.Session, snap build.Snapshot) buildResponse {
	resp := buildResponse{Snapshot: snap, AgentURL: agentURL(sess.AgentID)}
	if out, ok := sess.Outcome(); ok {
		st := &submissionStatus{
			StatusCode:    out.StatusCode,
			Accepted:      out.Accepted(),
			RemoteAgentID: out.RemoteAgentID,
			Mismatch:      out.Mismatch,
		}
		if out.Err != nil {
			st.Error = out.Err.Error()
		}
		resp.Submission = st
	}
	return resp
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*onboarding.Session, bool) {
	agentID := identity.AgentIDFromContext(r.Context())
	sess, err := h.svc.Session(agentID)
	if err != nil {
		if errors.Is(err, onboarding.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "build_not_found")
			return nil, false
		}
		Error(w, http.StatusInternalServerError, "internal_error")
		return nil, false
	}
	return sess, true
}

// GetBuild returns the current progress of a build.
func (h *Handler) GetBuild(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, newBuildResponse(sess, sess.Controller.Snapshot()))
}

// CancelBuild stops a build when the progress view is closed.
func (h *Handler) CancelBuild(w http.ResponseWriter, r *http.Request) {
	agentID := identity.AgentIDFromContext(r.Context())
	if err := h.svc.Cancel(agentID); err != nil {
		if errors.Is(err, onboarding.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "build_not_found")
			return
		}
		Error(w, http.StatusInternalServerError, "internal_error")
		return
	}
	h.logger.Info("build closed by client", "agent_id", agentID, "ip", identity.IPFromRequest(r))
	w.WriteHeader(http.StatusNoContent)
}

// latestSnapshots subscribes to ctrl and keeps only the newest undelivered
// snapshot, so the observer never blocks the controller.
func latestSnapshots(ctrl *build.Controller) (<-chan build.Snapshot, func()) {
	updates := make(chan build.Snapshot, 1)
	unsubscribe := ctrl.Subscribe(func(s build.Snapshot) {
		select {
		case updates <- s:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- s:
		default:
		}
	})
	return updates, unsubscribe
}

func isTerminal(s build.Snapshot) bool {
	return s.State == build.StateDone || s.State == build.StateCancelled
}

// BuildEvents streams build snapshots as server-sent events until the build
// finishes, is cancelled or the client disconnects.
func (h *Handler) BuildEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", sseRetryDelay.Milliseconds()); err != nil {
		h.logger.Warn("failed to write SSE retry header", "error", err, "agent_id", sess.AgentID)
		return
	}
	flusher.Flush()

	done := sess.Controller.Done()
	updates, unsubscribe := latestSnapshots(sess.Controller)
	defer unsubscribe()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	var eventID int64
	send := func(s build.Snapshot) bool {
		data, err := json.Marshal(newBuildResponse(sess, s))
		if err != nil {
			h.logger.Error("failed to marshal build snapshot", "error", err)
			return false
		}
		eventID++
		event := "progress"
		if isTerminal(s) {
			event = string(s.State)
		}
		if err := writeSSEWithID(w, eventID, event, string(data)); err != nil {
			h.logger.Debug("build event stream closed", "agent_id", sess.AgentID, "error", err)
			return false
		}
		flusher.Flush()
		return !isTerminal(s)
	}

	h.logger.Info("build event stream connected", "agent_id", sess.AgentID)
	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("build event stream disconnected", "agent_id", sess.AgentID)
			return
		case s := <-updates:
			if !send(s) {
				return
			}
		case <-done:
			select {
			case s := <-updates:
				send(s)
			default:
			}
			return
		case <-keepalive.C:
			if err := writeSSE(w, "ping", `{"status":"alive"}`); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func writeSSEWithID(w io.Writer, id int64, event, data string) error {
	_, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, event, data)
	return err
}
