package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantCreds  string
		wantStatus int
	}{
		{"explicit origin", []string{"https://app.test"}, "https://app.test", http.MethodGet, "https://app.test", "true", http.StatusTeapot},
		{"wildcard has no credentials", []string{"*"}, "https://other.test", http.MethodGet, "https://other.test", "", http.StatusTeapot},
		{"rejected origin", []string{"https://app.test"}, "https://evil.test", http.MethodGet, "", "", http.StatusTeapot},
		{"preflight", []string{"https://app.test"}, "https://app.test", http.MethodOptions, "https://app.test", "true", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/options", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			CORS(tt.allowed)(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("allow credentials = %q, want %q", got, tt.wantCreds)
			}
		})
	}
}
