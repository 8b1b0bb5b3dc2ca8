package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ashureev/agent-onboarding/internal/build"
	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/onboarding"
	"github.com/coder/websocket"
)

// WebSocketHandler streams build progress over a websocket. The client
// closes the progress view by sending {"type":"close"}.
type WebSocketHandler struct {
	svc           *onboarding.Service
	allowedOrigin string
	isDev         bool
	logger        *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(svc *onboarding.Service, allowedOrigin string, isDev bool, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		svc:           svc,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		logger:        logger,
	}
}

const wsWriteTimeout = 5 * time.Second

// wsMessage is a client control message.
type wsMessage struct {
	Type string `json:"type"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	agentID := identity.AgentIDFromContext(r.Context())
	logger := h.logger.With("agent_id", agentID)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	sess, err := h.svc.Session(agentID)
	if err != nil {
		Error(w, http.StatusNotFound, "build_not_found")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "build stream ended"); closeErr != nil {
			logger.Debug("Failed to close websocket", "error", closeErr)
		}
	}()
	logger.Info("Build websocket connected", "ip", identity.IPFromRequest(r))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	// Input loop: client control messages.
	go func() {
		defer wg.Done()
		defer cancel()
		h.inputLoop(ctx, ws, agentID, logger)
	}()

	// Output loop: build snapshots -> WebSocket.
	go func() {
		defer wg.Done()
		defer cancel()
		h.outputLoop(ctx, ws, sess, logger)
	}()

	wg.Wait()
	logger.Info("Build websocket closed")
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	h.logger.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) inputLoop(ctx context.Context, ws *websocket.Conn, agentID string, logger *slog.Logger) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				logger.Debug("WebSocket closed by client")
			} else if ctx.Err() == nil {
				logger.Warn("WebSocket read error", "error", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Debug("Ignoring malformed websocket message", "error", err)
			continue
		}

		switch msg.Type {
		case "ping":
			if err := writeJSON(ws, map[string]string{"type": "pong"}); err != nil {
				logger.Debug("Failed to send pong", "error", err)
			}
		case "close":
			if err := h.svc.Cancel(agentID); err != nil {
				logger.Debug("Close requested for inactive build", "error", err)
			}
			if err := writeJSON(ws, map[string]string{"type": "closed"}); err != nil {
				logger.Debug("Failed to send closed acknowledgment", "error", err)
			}
			return
		}
	}
}

func (h *WebSocketHandler) outputLoop(ctx context.Context, ws *websocket.Conn, sess *onboarding.Session, logger *slog.Logger) {
	done := sess.Controller.Done()
	updates, unsubscribe := latestSnapshots(sess.Controller)
	defer unsubscribe()

	send := func(s build.Snapshot) bool {
		if err := writeJSON(ws, newBuildResponse(sess, s)); err != nil {
			logger.Debug("WebSocket write error", "error", err)
			return false
		}
		return !isTerminal(s)
	}

	for {
		select {
		case <-ctx.Done():
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
		}
	}
}

// writeJSON writes v as a text message. Writes are bounded by their own
// timeout so an acknowledgment still goes out after the read side stops.
func writeJSON(ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
