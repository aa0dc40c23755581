package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prepai/server/internal/domain"
)

func TestChatSessionsCRUD(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	token := env.signup(t, "chat@example.com")
	p, err := env.issuer.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	for _, sid := range []string{"sess-a", "sess-b"} {
		err := env.repo.AppendChatMessage(ctx, p.UserID, p.Email, sid,
			domain.StoredMessage{Role: "user", Content: "hello " + sid, Timestamp: now},
			domain.StoredMessage{Role: "assistant", Content: "hi", Agent: "general", Timestamp: now},
		)
		if err != nil {
			t.Fatalf("AppendChatMessage failed: %v", err)
		}
	}

	w := env.do(t, http.MethodGet, "/api/chat-sessions", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var list struct {
		Sessions []domain.ChatSession `json:"sessions"`
	}
	decode(t, w, &list)
	if len(list.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list.Sessions))
	}

	w = env.do(t, http.MethodGet, "/api/chat-sessions/sess-a", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	var session domain.ChatSession
	decode(t, w, &session)
	if len(session.Messages) != 2 || session.Messages[0].Content != "hello sess-a" {
		t.Errorf("unexpected messages: %+v", session.Messages)
	}

	w = env.do(t, http.MethodPatch, "/api/chat-sessions/sess-a", token, map[string]string{"topic": "  Go interviews "})
	if w.Code != http.StatusOK {
		t.Fatalf("rename: expected 200, got %d", w.Code)
	}
	got, err := env.repo.GetChatSession(ctx, p.UserID, "sess-a")
	if err != nil {
		t.Fatalf("GetChatSession failed: %v", err)
	}
	if got.Topic != "Go interviews" {
		t.Errorf("expected trimmed topic, got %q", got.Topic)
	}

	w = env.do(t, http.MethodPatch, "/api/chat-sessions/sess-a", token, map[string]string{"topic": " "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank topic: expected 400, got %d", w.Code)
	}
	w = env.do(t, http.MethodPatch, "/api/chat-sessions/missing", token, map[string]string{"topic": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("rename missing: expected 404, got %d", w.Code)
	}

	w = env.do(t, http.MethodDelete, "/api/chat-sessions/sess-a", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/chat-sessions/sess-a", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted session: expected 404, got %d", w.Code)
	}
	w = env.do(t, http.MethodDelete, "/api/chat-sessions/sess-a", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete: expected 404, got %d", w.Code)
	}

	w = env.do(t, http.MethodDelete, "/api/chat-sessions", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete all: expected 200, got %d", w.Code)
	}
	var deleted map[string]int64
	decode(t, w, &deleted)
	if deleted["deleted_count"] != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted["deleted_count"])
	}
}

func TestChatSessionsAreScopedToUser(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	owner := env.signup(t, "owner@example.com")
	other := env.signup(t, "other@example.com")

	p, err := env.issuer.Verify(context.Background(), owner)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	err = env.repo.AppendChatMessage(context.Background(), p.UserID, p.Email, "private",
		domain.StoredMessage{Role: "user", Content: "secret", Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("AppendChatMessage failed: %v", err)
	}

	w := env.do(t, http.MethodGet, "/api/chat-sessions/private", other, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user's session, got %d", w.Code)
	}
	w = env.do(t, http.MethodDelete, "/api/chat-sessions/private", other, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting another user's session, got %d", w.Code)
	}
}
