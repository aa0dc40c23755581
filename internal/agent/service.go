package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prepai/server/internal/domain"
	"github.com/prepai/server/internal/multiagent"
	"github.com/prepai/server/internal/store"
)

// ChatHistory persists authenticated exchanges. store.Repository
// satisfies it.
type ChatHistory interface {
	AppendChatMessage(ctx context.Context, userID, email, sessionID string, msgs ...domain.StoredMessage) error
	LogActivity(ctx context.Context, a *domain.Activity) error
}

var _ ChatHistory = (store.Repository)(nil)

// Service runs chat requests through the router, logs the conversation
// and records it for signed-in users.
type Service struct {
	processor Processor
	history   ChatHistory
	log       ConversationLogger
}

// NewService creates a chat service. history and log may be nil.
func NewService(processor Processor, history ChatHistory, log ConversationLogger) *Service {
	if log == nil {
		log = noopConversationLogger{}
	}
	return &Service{processor: processor, history: history, log: log}
}

// Configured reports whether the router can answer queries.
func (s *Service) Configured() bool {
	return s.processor != nil && s.processor.Configured()
}

// Chat routes one query. Persistence failures are logged and do not fail
// the request.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, multiagent.ErrEmptyQuery
	}
	if !s.Configured() {
		return nil, multiagent.ErrNotConfigured
	}

	logUser := req.UserID
	if logUser == "" {
		logUser = "anonymous"
	}
	s.log.Log(ConversationLogEvent{
		UserID:     logUser,
		SessionID:  req.SessionID,
		Channel:    req.Channel,
		Direction:  "outbound",
		EventType:  "chat_user_message",
		ContentRaw: req.Query,
		Meta: map[string]any{
			"request_id":    req.RequestID,
			"current_agent": req.CurrentAgent,
			"history_len":   len(req.Messages),
		},
	})

	start := time.Now()
	res, err := s.processor.Route(ctx, multiagent.Request{
		Query:        req.Query,
		Messages:     req.Messages,
		CurrentAgent: req.CurrentAgent,
	})
	if err != nil {
		s.log.Log(ConversationLogEvent{
			UserID:    logUser,
			SessionID: req.SessionID,
			Channel:   req.Channel,
			Direction: "inbound",
			EventType: "chat_error",
			Meta:      map[string]any{"request_id": req.RequestID, "error": err.Error()},
		})
		return nil, err
	}

	resp := &ChatResponse{
		Query:          req.Query,
		Response:       res.Response,
		CurrentAgent:   string(res.CurrentAgent),
		Category:       res.Category,
		ShouldContinue: res.ShouldContinue,
		Status:         statusSuccess,
	}

	s.log.Log(ConversationLogEvent{
		UserID:     logUser,
		SessionID:  req.SessionID,
		Channel:    req.Channel,
		Direction:  "inbound",
		EventType:  "chat_assistant_message",
		ContentRaw: res.Response,
		Meta: map[string]any{
			"request_id":  req.RequestID,
			"agent":       resp.CurrentAgent,
			"category":    resp.Category,
			"trace":       res.Trace,
			"duration_ms": time.Since(start).Milliseconds(),
		},
	})

	if req.UserID != "" && s.history != nil {
		resp.SessionID = req.SessionID
		s.record(ctx, req, resp)
	}
	return resp, nil
}

func (s *Service) record(ctx context.Context, req ChatRequest, resp *ChatResponse) {
	now := time.Now().UTC()
	err := s.history.AppendChatMessage(ctx, req.UserID, req.Email, req.SessionID,
		domain.StoredMessage{Role: "user", Content: req.Query, Timestamp: now},
		domain.StoredMessage{Role: "assistant", Content: resp.Response, Agent: resp.CurrentAgent, Timestamp: now},
	)
	if err != nil {
		slog.Warn("failed to append chat session", "user_id", req.UserID, "session_id", req.SessionID, "error", err)
	}

	err = s.history.LogActivity(ctx, &domain.Activity{
		UserID:       req.UserID,
		Email:        req.Email,
		ActivityType: domain.ActivityFeatureUse,
		ActivityName: "AI Chat",
		Metadata: map[string]any{
			"session_id": req.SessionID,
			"agent":      resp.CurrentAgent,
			"category":   resp.Category,
		},
	})
	if err != nil {
		slog.Warn("failed to log chat activity", "user_id", req.UserID, "error", err)
	}
}
