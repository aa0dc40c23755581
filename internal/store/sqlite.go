package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/prepai/server/internal/shared"
)

var _ Repository = (*SQLiteStore)(nil)

// SQLiteStore implements Repository using SQLite. Activity records are
// stored as JSON documents next to the columns used for filtering and
// ordering.
type SQLiteStore struct {
	db     *sql.DB
	chatMu sync.Mutex // serializes chat session read-modify-write to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		picture TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		subscription_tier TEXT NOT NULL DEFAULT 'free',
		total_login_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		last_login INTEGER
	);

	CREATE TABLE IF NOT EXISTS user_activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		ts INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_user_activities_user_ts ON user_activities(user_id, ts DESC);

	CREATE TABLE IF NOT EXISTS question_bank_activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		ts INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_question_bank_user_ts ON question_bank_activities(user_id, ts DESC);

	CREATE TABLE IF NOT EXISTS resume_activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		ts INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resume_user_ts ON resume_activities(user_id, ts DESC);

	CREATE TABLE IF NOT EXISTS mock_interviews (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		ts INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mock_interviews_user_ts ON mock_interviews(user_id, ts DESC);

	CREATE TABLE IF NOT EXISTS job_searches (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		ts INTEGER NOT NULL,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_job_searches_user_ts ON job_searches(user_id, ts DESC);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		email TEXT NOT NULL,
		topic TEXT NOT NULL,
		current_agent TEXT NOT NULL DEFAULT '',
		message_count INTEGER NOT NULL DEFAULT 0,
		messages TEXT NOT NULL DEFAULT '[]',
		started_at INTEGER NOT NULL,
		last_message_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_last ON chat_sessions(user_id, last_message_at DESC);

	CREATE TABLE IF NOT EXISTS revoked_tokens (
		jti TEXT PRIMARY KEY,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expiry ON revoked_tokens(expires_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// exec runs a write with the SQLite conflict retry policy.
func (s *SQLiteStore) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := shared.RetryOnConflict(ctx, op, shared.DefaultRetryPolicy, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// insertDoc stores v as the JSON document of a new row in table.
func (s *SQLiteStore) insertDoc(ctx context.Context, table, id, userID string, ts time.Time, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", table, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, user_id, ts, doc) VALUES (?, ?, ?, ?)`, table)
	_, err = s.exec(ctx, "insert "+table, query, id, userID, ts.UnixMilli(), string(doc))
	return err
}

// recentDocs decodes the newest limit documents of a user from table.
func recentDocs[T any](ctx context.Context, db *sql.DB, table, userID string, limit int) ([]T, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE user_id = ? ORDER BY ts DESC, rowid DESC LIMIT ?`, table)
	rows, err := db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close rows", "table", table, "error", closeErr)
		}
	}()

	out := make([]T, 0, limit)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		var v T
		if err := json.Unmarshal([]byte(doc), &v); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", table, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func (s *SQLiteStore) countRows(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func newID() string {
	return uuid.NewString()
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
