package domain

import "time"

// StoredMessage is a persisted chat message.
type StoredMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Agent     string    `json:"agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is one conversation with the assistant. Messages is empty in
// listings and populated when a single session is fetched.
type ChatSession struct {
	UserID        string          `json:"user_id"`
	Email         string          `json:"email"`
	SessionID     string          `json:"session_id"`
	Topic         string          `json:"topic"`
	CurrentAgent  string          `json:"current_agent,omitempty"`
	MessageCount  int             `json:"message_count"`
	Messages      []StoredMessage `json:"messages,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	LastMessageAt time.Time       `json:"last_message_at"`
}
