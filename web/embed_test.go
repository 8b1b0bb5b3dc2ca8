package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSPAHandler(t *testing.T) {
	h := SPAHandler()

	for _, path := range []string{"/", "/agent/0f8fad5b-d9cb-469f-a165-70867728950e"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Build your AI agent") {
			t.Errorf("%s: expected index.html to be served", path)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("api path: status = %d, want 404", w.Code)
	}
}
