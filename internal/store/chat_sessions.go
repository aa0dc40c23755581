package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepai/server/internal/domain"
	"github.com/prepai/server/internal/shared"
)

// AppendChatMessage appends msgs to the session, creating it with the
// default topic on first use. The session's current agent follows the
// last message that names one and its activity time follows the newest
// message timestamp.
func (s *SQLiteStore) AppendChatMessage(ctx context.Context, userID, email, sessionID string, msgs ...domain.StoredMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	return shared.RetryOnConflict(ctx, "append chat message", shared.DefaultRetryPolicy, func() error {
		return s.appendChatOnce(ctx, userID, email, sessionID, msgs)
	})
}

func (s *SQLiteStore) appendChatOnce(ctx context.Context, userID, email, sessionID string, msgs []domain.StoredMessage) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chat append: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Warn("chat append rollback failed", "error", rbErr)
			}
		}
	}()

	var (
		raw          string
		currentAgent string
		existing     []domain.StoredMessage
	)
	err = tx.QueryRowContext(ctx,
		`SELECT messages, current_agent FROM chat_sessions WHERE user_id = ? AND session_id = ?`,
		userID, sessionID).Scan(&raw, &currentAgent)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return fmt.Errorf("load chat session: %w", err)
	default:
		if err = json.Unmarshal([]byte(raw), &existing); err != nil {
			return fmt.Errorf("decode chat messages: %w", err)
		}
	}

	var lastAt time.Time
	for i := range msgs {
		msgs[i].Timestamp = stamp(msgs[i].Timestamp)
		if msgs[i].Timestamp.After(lastAt) {
			lastAt = msgs[i].Timestamp
		}
		if msgs[i].Agent != "" {
			currentAgent = msgs[i].Agent
		}
	}
	all := append(existing, msgs...)
	encoded, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encode chat messages: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_sessions (user_id, session_id, email, topic, current_agent, message_count, messages, started_at, last_message_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, session_id) DO UPDATE SET
			current_agent = excluded.current_agent,
			message_count = excluded.message_count,
			messages = excluded.messages,
			last_message_at = excluded.last_message_at`,
		userID, sessionID, email, domain.DefaultChatTopic, currentAgent, len(all), string(encoded),
		msgs[0].Timestamp.UnixMilli(), lastAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert chat session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit chat append: %w", err)
	}
	return nil
}

// ListChatSessions returns a user's sessions without messages, most
// recently active first.
func (s *SQLiteStore) ListChatSessions(ctx context.Context, userID string) ([]domain.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, session_id, email, topic, current_agent, message_count, started_at, last_message_at
		FROM chat_sessions WHERE user_id = ?
		ORDER BY last_message_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query chat sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close chat session rows", "error", closeErr)
		}
	}()

	sessions := []domain.ChatSession{}
	for rows.Next() {
		var cs domain.ChatSession
		var startedAt, lastAt int64
		if err := rows.Scan(&cs.UserID, &cs.SessionID, &cs.Email, &cs.Topic, &cs.CurrentAgent,
			&cs.MessageCount, &startedAt, &lastAt); err != nil {
			return nil, fmt.Errorf("scan chat session row: %w", err)
		}
		cs.StartedAt = fromMillis(startedAt)
		cs.LastMessageAt = fromMillis(lastAt)
		sessions = append(sessions, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat sessions: %w", err)
	}
	return sessions, nil
}

// GetChatSession returns one session including its messages.
func (s *SQLiteStore) GetChatSession(ctx context.Context, userID, sessionID string) (*domain.ChatSession, error) {
	var cs domain.ChatSession
	var raw string
	var startedAt, lastAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, session_id, email, topic, current_agent, message_count, messages, started_at, last_message_at
		FROM chat_sessions WHERE user_id = ? AND session_id = ?`, userID, sessionID).
		Scan(&cs.UserID, &cs.SessionID, &cs.Email, &cs.Topic, &cs.CurrentAgent,
			&cs.MessageCount, &raw, &startedAt, &lastAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat session: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &cs.Messages); err != nil {
		return nil, fmt.Errorf("decode chat messages: %w", err)
	}
	cs.StartedAt = fromMillis(startedAt)
	cs.LastMessageAt = fromMillis(lastAt)
	return &cs, nil
}

// RenameChatSession sets the topic of a session.
func (s *SQLiteStore) RenameChatSession(ctx context.Context, userID, sessionID, topic string) error {
	res, err := s.exec(ctx, "rename chat session",
		`UPDATE chat_sessions SET topic = ? WHERE user_id = ? AND session_id = ?`,
		topic, userID, sessionID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteChatSession removes one session.
func (s *SQLiteStore) DeleteChatSession(ctx context.Context, userID, sessionID string) error {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	res, err := s.exec(ctx, "delete chat session",
		`DELETE FROM chat_sessions WHERE user_id = ? AND session_id = ?`, userID, sessionID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteChatSessions removes every session of a user.
func (s *SQLiteStore) DeleteChatSessions(ctx context.Context, userID string) (int64, error) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	res, err := s.exec(ctx, "delete chat sessions", `DELETE FROM chat_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeStaleChatSessions removes sessions with no message for ttl.
func (s *SQLiteStore) PurgeStaleChatSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).UnixMilli()

	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	res, err := s.exec(ctx, "purge stale chat sessions",
		`DELETE FROM chat_sessions WHERE last_message_at < ?`, threshold)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
