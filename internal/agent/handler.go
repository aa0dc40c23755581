package agent

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/prepai/server/internal/api"
	"github.com/prepai/server/internal/identity"
	"github.com/prepai/server/internal/multiagent"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20 // 1MB

const (
	msgQueryRequired = "Query is required"
	msgNotConfigured = "Multi-agent system not configured"
	msgRateLimited   = "rate limit exceeded"
	msgBodyTooLarge  = "request body too large"
	msgInvalidBody   = "invalid request body"
)

// Options configures a Handler.
type Options struct {
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	MaxRequestBodySize int64

	// OriginPatterns lists hosts allowed to open /ws/chat. Empty means
	// same-origin only; "*" allows any origin.
	OriginPatterns []string
}

// Handler serves the multi-agent chat endpoints.
type Handler struct {
	svc            *Service
	rateLimiter    *RateLimiter
	maxBodySize    int64
	originPatterns []string
}

// NewHandler creates a handler around svc.
func NewHandler(svc *Service, opts Options) *Handler {
	if opts.RateLimitRequests <= 0 {
		opts.RateLimitRequests = 10
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Minute
	}
	if opts.MaxRequestBodySize <= 0 {
		opts.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	return &Handler{
		svc:            svc,
		rateLimiter:    NewRateLimiter(opts.RateLimitRequests, opts.RateLimitWindow),
		maxBodySize:    opts.MaxRequestBodySize,
		originPatterns: opts.OriginPatterns,
	}
}

// RegisterRoutes registers the chat routes. Callers install
// identity.Issuer.Optional on r so signed-in exchanges are recorded.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/multi-agent/chat", h.HandleChat)
	r.Get("/ws/chat", h.HandleWebSocket)
}

// HandleChat handles POST /multi-agent/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(rateKey(r)) {
		api.Error(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}

	if !h.svc.Configured() {
		api.Error(w, http.StatusServiceUnavailable, msgNotConfigured)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		api.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	h.bind(r, &req, channelHTTP)
	slog.Info("Multi-agent chat request",
		"user_id", req.UserID,
		"session_id", req.SessionID,
		"current_agent", req.CurrentAgent,
		"history_len", len(req.Messages),
	)

	resp, err := h.svc.Chat(r.Context(), req)
	if err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("Multi-agent chat failed", "error", err, "request_id", req.RequestID)
		}
		api.Error(w, status, msg)
		return
	}
	api.JSON(w, http.StatusOK, resp)
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Close()
}

// bind fills the server-side fields of req from the request context.
func (h *Handler) bind(r *http.Request, req *ChatRequest, channel string) {
	if p, ok := identity.PrincipalFromContext(r.Context()); ok {
		req.UserID = p.UserID
		req.Email = p.Email
	}
	if strings.TrimSpace(req.SessionID) != "" {
		req.SessionID = identity.SanitizeSessionID(req.SessionID)
	} else {
		req.SessionID = identity.SessionIDFromContext(r.Context())
	}
	req.RequestID = chiMiddleware.GetReqID(r.Context())
	req.Channel = channel
}

func rateKey(r *http.Request) string {
	if id := identity.UserIDFromContext(r.Context()); id != "" {
		return id
	}
	return "ip:" + identity.IPFromRequest(r)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, multiagent.ErrEmptyQuery):
		return http.StatusBadRequest, msgQueryRequired
	case errors.Is(err, multiagent.ErrNotConfigured):
		return http.StatusServiceUnavailable, msgNotConfigured
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
