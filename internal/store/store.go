// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/prepai/server/internal/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned by CreateUser for a registered email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Dashboard list sizes.
const (
	RecentLimit   = 10
	TimelineLimit = 50
)

// Repository defines the interface for persisting users, their activity
// and chat sessions.
type Repository interface {
	// CreateUser inserts a new user. The email must be unique.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByEmail retrieves a user by email, case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	// RecordLogin bumps the login counter and last-login time.
	RecordLogin(ctx context.Context, userID string, at time.Time) error

	LogActivity(ctx context.Context, a *domain.Activity) error
	LogQuestionBank(ctx context.Context, a *domain.QuestionBankActivity) error
	LogResume(ctx context.Context, a *domain.ResumeActivity) error
	LogMockInterview(ctx context.Context, m *domain.MockInterview) error
	LogJobSearch(ctx context.Context, j *domain.JobSearch) error

	// AppendChatMessage appends messages to a chat session, creating it on
	// first use.
	AppendChatMessage(ctx context.Context, userID, email, sessionID string, msgs ...domain.StoredMessage) error

	// ListChatSessions returns a user's sessions, most recent first,
	// without their messages.
	ListChatSessions(ctx context.Context, userID string) ([]domain.ChatSession, error)

	// GetChatSession returns one session with its messages.
	GetChatSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error)

	RenameChatSession(ctx context.Context, userID, sessionID, topic string) error
	DeleteChatSession(ctx context.Context, userID, sessionID string) error

	// DeleteChatSessions removes all of a user's sessions.
	DeleteChatSessions(ctx context.Context, userID string) (int64, error)

	// PurgeStaleChatSessions removes sessions idle for longer than ttl.
	PurgeStaleChatSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Dashboard queries. Each returns totals and at most limit recent items.
	QuestionBankStats(ctx context.Context, userID string, limit int) (domain.QuestionBankStat, error)
	MockInterviewStats(ctx context.Context, userID string, limit int) (domain.MockStat, error)
	ResumeStats(ctx context.Context, userID string, limit int) (domain.ResumeStat, error)
	ChatStats(ctx context.Context, userID string) (domain.ChatStat, error)
	JobSearchStats(ctx context.Context, userID string, limit int) (domain.JobSearchStat, error)
	RecentActivities(ctx context.Context, userID string, limit int) ([]domain.Activity, error)

	// RevokeToken blocks a token ID until it would have expired anyway.
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
