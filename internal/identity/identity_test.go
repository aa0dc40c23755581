package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type memRevocations struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func (m *memRevocations) RevokeToken(_ context.Context, jti string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids == nil {
		m.ids = make(map[string]time.Time)
	}
	m.ids[jti] = exp
	return nil
}

func (m *memRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[jti]
	return ok, nil
}

func TestIssueVerifyRevoke(t *testing.T) {
	t.Parallel()

	rev := &memRevocations{}
	iss := NewIssuer("test-secret", time.Hour, rev)

	token, err := iss.Issue("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	p, err := iss.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.UserID != "user-1" || p.Email != "ada@example.com" || p.TokenID == "" {
		t.Fatalf("Verify() = %+v", p)
	}
	if time.Until(p.ExpiresAt) <= 0 {
		t.Fatalf("ExpiresAt = %v, want future", p.ExpiresAt)
	}

	if err := iss.Revoke(context.Background(), p); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, err := iss.Verify(context.Background(), token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("Verify(revoked) error = %v, want ErrTokenRevoked", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("test-secret", time.Hour, nil)
	other := NewIssuer("other-secret", time.Hour, nil)

	expired := NewIssuer("test-secret", time.Hour, nil)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	forged, _ := other.Issue("user-1", "a@example.com")
	old, _ := expired.Issue("user-1", "a@example.com")

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"wrong secret", forged, ErrInvalidToken},
		{"expired", old, ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := iss.Verify(context.Background(), tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRequiredMiddleware(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("test-secret", time.Hour, nil)
	token, _ := iss.Issue("user-1", "ada@example.com")

	var gotUser, gotSession string
	h := iss.Required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotSession = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chat-sessions", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), ErrMissingToken.Error()) {
		t.Fatalf("no token: body = %s", rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/chat-sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(SessionHeaderName, "chat-42")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("valid token: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if gotUser != "user-1" || gotSession != "chat-42" {
		t.Fatalf("context user=%q session=%q", gotUser, gotSession)
	}
}

func TestOptionalMiddleware(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("test-secret", time.Hour, nil)

	var authed bool
	h := iss.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authed = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/multi-agent/chat", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || authed {
		t.Fatalf("invalid token should pass anonymously: status=%d authed=%v", rr.Code, authed)
	}
}

func TestSanitizeSessionID(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":            DefaultSessionIDValue,
		"  abc-123  ": "abc-123",
		"has space":   DefaultSessionIDValue,
		"../../etc":   DefaultSessionIDValue,
		"s_1.2:3":     "s_1.2:3",
		"<script>":    DefaultSessionIDValue,
	}
	for in, want := range cases {
		if got := SanitizeSessionID(in); got != want {
			t.Errorf("SanitizeSessionID(%q) = %q, want %q", in, got, want)
		}
	}
}
