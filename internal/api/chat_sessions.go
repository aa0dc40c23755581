package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prepai/server/internal/identity"
	"github.com/prepai/server/internal/store"
)

const maxTopicLength = 120

// ListChatSessions returns the caller's chat sessions without messages.
func (h *Handler) ListChatSessions(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessions, err := h.repo.ListChatSessions(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to list chat sessions", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list chat sessions")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// GetChatSession returns one session with its messages.
func (h *Handler) GetChatSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.repo.GetChatSession(r.Context(), userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "chat session not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load chat session", "user_id", userID, "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load chat session")
		return
	}
	JSON(w, http.StatusOK, session)
}

// RenameChatSession updates a session's topic.
func (h *Handler) RenameChatSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Topic string `json:"topic"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		Error(w, http.StatusBadRequest, "topic is required")
		return
	}
	if len([]rune(topic)) > maxTopicLength {
		topic = string([]rune(topic)[:maxTopicLength])
	}

	err := h.repo.RenameChatSession(r.Context(), userID, sessionID, topic)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "chat session not found")
		return
	}
	if err != nil {
		slog.Error("Failed to rename chat session", "user_id", userID, "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to rename chat session")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"session_id": sessionID, "topic": topic})
}

// DeleteChatSession removes one session.
func (h *Handler) DeleteChatSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	err := h.repo.DeleteChatSession(r.Context(), userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "chat session not found")
		return
	}
	if err != nil {
		slog.Error("Failed to delete chat session", "user_id", userID, "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete chat session")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "chat session deleted"})
}

// DeleteChatSessions removes all of the caller's sessions.
func (h *Handler) DeleteChatSessions(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	n, err := h.repo.DeleteChatSessions(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to delete chat sessions", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete chat sessions")
		return
	}
	JSON(w, http.StatusOK, map[string]int64{"deleted_count": n})
}
