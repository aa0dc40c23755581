package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prepai/server/internal/domain"
	"github.com/prepai/server/internal/shared"
)

const userColumns = `id, email, first_name, last_name, picture, password_hash,
	subscription_tier, total_login_count, created_at, last_login`

// CreateUser inserts a new user. ID, CreatedAt and SubscriptionTier are
// filled in when empty.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	user.Email = domain.NormalizeEmail(user.Email)
	user.CreatedAt = stamp(user.CreatedAt)
	if user.SubscriptionTier == "" {
		user.SubscriptionTier = domain.SubscriptionFree
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var lastLogin any
	if user.LastLogin != nil {
		lastLogin = user.LastLogin.UnixMilli()
	}

	_, err := s.exec(ctx, "insert user", query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Picture, user.PasswordHash,
		user.SubscriptionTier, user.TotalLoginCount, user.CreatedAt.UnixMilli(), lastLogin,
	)
	if shared.IsSQLiteUniqueError(err) {
		return ErrDuplicateEmail
	}
	return err
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email))
	return scanUser(row)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// RecordLogin increments the login counter and sets the last login time.
func (s *SQLiteStore) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := s.exec(ctx, "record login",
		`UPDATE users SET total_login_count = total_login_count + 1, last_login = ? WHERE id = ?`,
		stamp(at).UnixMilli(), userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var createdAt int64
	var lastLogin sql.NullInt64

	err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Picture, &user.PasswordHash,
		&user.SubscriptionTier, &user.TotalLoginCount, &createdAt, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.CreatedAt = fromMillis(createdAt)
	if lastLogin.Valid {
		ts := fromMillis(lastLogin.Int64)
		user.LastLogin = &ts
	}
	return &user, nil
}
