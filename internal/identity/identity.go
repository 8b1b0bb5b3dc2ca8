// Package identity generates and validates agent correlation identifiers.
package identity

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// URLParam is the chi route parameter carrying the agent ID.
const URLParam = "agentID"

type contextKey int

const agentIDKey contextKey = iota

var agentIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// randomSource is swapped in tests to exercise the fallback path.
var randomSource = uuid.NewRandom

// NewAgentID returns a random UUIDv4 string. It uses the crypto source and
// falls back to a pseudo-random generator of the same shape when the crypto
// source fails, so it never returns an empty or malformed value.
func NewAgentID() string {
	id, err := randomSource()
	if err == nil {
		return id.String()
	}
	slog.Warn("crypto uuid source unavailable, using pseudo-random fallback", "error", err)
	return fallbackID()
}

// fallbackID fills xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx from math/rand/v2,
// constraining y to 8-b.
func fallbackID() string {
	const template = "xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx"
	const hex = "0123456789abcdef"

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); i++ {
		switch template[i] {
		case 'x':
			b.WriteByte(hex[rand.IntN(16)])
		case 'y':
			b.WriteByte(hex[rand.IntN(16)&0x3|0x8])
		default:
			b.WriteByte(template[i])
		}
	}
	return b.String()
}

// IsValidAgentID reports whether id has the UUIDv4 shape. Upper-case hex is
// accepted.
func IsValidAgentID(id string) bool {
	return agentIDPattern.MatchString(strings.ToLower(id))
}

// AgentIDFromContext extracts the agent ID placed by Middleware.
func AgentIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(agentIDKey).(string); ok {
		return v
	}
	return ""
}

// WithAgentID returns a copy of ctx carrying the agent ID.
func WithAgentID(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, agentIDKey, agentID)
}

// Middleware validates the {agentID} route parameter and stores its
// lower-cased form in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, URLParam))
		if !IsValidAgentID(id) {
			http.Error(w, `{"error":"invalid agent id"}`, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAgentID(r.Context(), strings.ToLower(id))))
	})
}

// IPFromRequest returns a normalized remote IP for request logging.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
