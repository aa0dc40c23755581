// Package api provides HTTP handlers for the PrepAI API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prepai/server/internal/identity"
	"github.com/prepai/server/internal/jobs"
	"github.com/prepai/server/internal/llm"
	"github.com/prepai/server/internal/store"
)

// maxBodyBytes caps JSON request bodies (1MB).
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// Deps are the collaborators shared by the handlers. Model and Jobs may be
// nil when the corresponding provider is not configured.
type Deps struct {
	Repo   store.Repository
	Issuer *identity.Issuer
	Model  llm.Model
	Jobs   *jobs.Service
}

// Handler serves the account, dashboard and tool endpoints.
type Handler struct {
	repo   store.Repository
	issuer *identity.Issuer
	model  llm.Model
	jobs   *jobs.Service
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(d Deps) *Handler {
	return &Handler{
		repo:   d.Repo,
		issuer: d.Issuer,
		model:  d.Model,
		jobs:   d.Jobs,
	}
}

// RegisterRoutes registers every route served by Handler.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/api/config", h.GetConfig)
	r.Post("/scrape-review", h.ScrapeReview)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.With(h.issuer.Required).Get("/me", h.Me)
		r.With(h.issuer.Required).Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.issuer.Optional)
		r.Post("/generate-questions", h.GenerateQuestions)
		r.Post("/evaluate-resume", h.EvaluateResume)
		r.Get("/api/jobs", h.GetJobs)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.issuer.Required)
		r.Get("/api/dashboard-info", h.DashboardInfo)
		r.Post("/api/mock-interviews", h.RecordMockInterview)
		r.Route("/api/chat-sessions", func(r chi.Router) {
			r.Get("/", h.ListChatSessions)
			r.Delete("/", h.DeleteChatSessions)
			r.Get("/{sessionID}", h.GetChatSession)
			r.Patch("/{sessionID}", h.RenameChatSession)
			r.Delete("/{sessionID}", h.DeleteChatSession)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a size-limited JSON body into v and writes the error
// response itself. It reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		Error(w, http.StatusBadRequest, errEmptyBody.Error())
	default:
		Error(w, http.StatusBadRequest, "invalid request body")
	}
	return false
}
