package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveCORS(origins []string, method, origin string) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(method, "/api/chat-sessions", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, reached
}

func TestCORSExplicitOrigin(t *testing.T) {
	w, reached := serveCORS([]string{"https://app.prepai.dev"}, http.MethodGet, "https://app.prepai.dev")

	if !reached {
		t.Fatal("expected request to reach the handler")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.prepai.dev" {
		t.Errorf("expected origin echoed, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials for an explicit origin")
	}
	headers := w.Header().Get("Access-Control-Allow-Headers")
	if !strings.Contains(headers, "Authorization") || !strings.Contains(headers, "X-Session-ID") {
		t.Errorf("missing allowed headers: %q", headers)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Error("expected PATCH to be allowed")
	}
}

func TestCORSWildcardOmitsCredentials(t *testing.T) {
	w, _ := serveCORS([]string{"*"}, http.MethodGet, "http://localhost:5173")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected origin echoed, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("wildcard match must not allow credentials")
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	w, reached := serveCORS([]string{"https://app.prepai.dev"}, http.MethodGet, "https://evil.example")

	if !reached {
		t.Fatal("non-preflight requests still reach the handler")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	w, reached := serveCORS([]string{"*"}, http.MethodOptions, "http://localhost:5173")

	if reached {
		t.Error("preflight must not reach the handler")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
