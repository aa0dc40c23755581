// Package agent exposes the multi-agent router over HTTP and WebSocket.
package agent

import "github.com/prepai/server/internal/multiagent"

// ChatRequest is the body of a multi-agent chat request.
type ChatRequest struct {
	Query        string               `json:"query"`
	Messages     []multiagent.Message `json:"messages,omitempty"`
	CurrentAgent string               `json:"current_agent,omitempty"`
	SessionID    string               `json:"session_id,omitempty"`

	UserID    string `json:"-"`
	Email     string `json:"-"`
	RequestID string `json:"-"`
	Channel   string `json:"-"`
}

// ChatResponse is returned for a routed query.
type ChatResponse struct {
	Query          string `json:"query"`
	Response       string `json:"response"`
	CurrentAgent   string `json:"current_agent"`
	Category       string `json:"category"`
	ShouldContinue bool   `json:"should_continue"`
	Status         string `json:"status"`
	SessionID      string `json:"session_id,omitempty"`
}

const statusSuccess = "success"

// Conversation log channels.
const (
	channelHTTP      = "chat_http"
	channelWebSocket = "chat_ws"
)
