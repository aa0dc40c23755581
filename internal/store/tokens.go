package store

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken records a revoked token ID. Revoking twice is a no-op.
func (s *SQLiteStore) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.exec(ctx, "revoke token",
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT(jti) DO NOTHING`,
		jti, expiresAt.UnixMilli())
	return err
}

// IsTokenRevoked reports whether jti has been revoked.
func (s *SQLiteStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.countRows(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// PurgeExpiredTokens drops revocations whose tokens have expired by now.
func (s *SQLiteStore) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.exec(ctx, "purge expired tokens",
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
