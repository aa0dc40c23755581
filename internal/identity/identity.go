// Package identity issues and verifies bearer tokens and carries the
// authenticated user through the request context.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionHeaderName     = "X-Session-ID"
	DefaultSessionIDValue = "default"
	bearerPrefix          = "Bearer "
)

var (
	ErrMissingToken = errors.New("missing or invalid authorization header")
	ErrTokenExpired = errors.New("token has expired")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

type contextKey int

const (
	principalKey contextKey = iota
	sessionIDKey
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Claims are the JWT claims issued at login. Subject is the user ID.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// RevocationStore persists revoked token IDs.
type RevocationStore interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

// NewIssuer creates an issuer. A nil store disables revocation checks.
func NewIssuer(secret string, ttl time.Duration, revoked RevocationStore) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}
}

// Issue returns a signed token for the user.
func (i *Issuer) Issue(userID, email string) (string, error) {
	now := i.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and checks signature, expiry and revocation.
func (i *Issuer) Verify(ctx context.Context, token string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Principal{}, ErrTokenExpired
	case err != nil:
		return Principal{}, ErrInvalidToken
	case claims.Subject == "":
		return Principal{}, ErrInvalidToken
	}

	if i.revoked != nil && claims.ID != "" {
		revoked, err := i.revoked.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return Principal{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Principal{}, ErrTokenRevoked
		}
	}

	p := Principal{UserID: claims.Subject, Email: claims.Email, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// Revoke blocks the principal's token until it expires.
func (i *Issuer) Revoke(ctx context.Context, p Principal) error {
	if i.revoked == nil || p.TokenID == "" {
		return nil
	}
	if err := i.revoked.RevokeToken(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Required rejects requests without a valid bearer token with 401.
func (i *Issuer) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := i.fromRequest(r)
		if err != nil {
			status := http.StatusUnauthorized
			if !isAuthError(err) {
				status = http.StatusInternalServerError
			}
			writeError(w, status, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(withRequest(r, &p)))
	})
}

// Optional attaches the principal when a valid token is present and lets
// anonymous requests through.
func (i *Issuer) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var principal *Principal
		if p, err := i.fromRequest(r); err == nil {
			principal = &p
		}
		next.ServeHTTP(w, r.WithContext(withRequest(r, principal)))
	})
}

func (i *Issuer) fromRequest(r *http.Request) (Principal, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return Principal{}, ErrMissingToken
	}
	return i.Verify(r.Context(), strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
}

func isAuthError(err error) bool {
	return errors.Is(err, ErrMissingToken) || errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenRevoked)
}

func withRequest(r *http.Request, p *Principal) context.Context {
	ctx := r.Context()
	if p != nil {
		ctx = WithPrincipal(ctx, *p)
	}
	return context.WithValue(ctx, sessionIDKey, sessionIDFromRequest(r))
}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.UserID
}

// SessionIDFromContext extracts the chat session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return DefaultSessionIDValue
}

// SanitizeSessionID returns id if it is a usable session ID and the default
// otherwise.
func SanitizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !sessionIDPattern.MatchString(id) {
		return DefaultSessionIDValue
	}
	return id
}

func sessionIDFromRequest(r *http.Request) string {
	sid := r.Header.Get(SessionHeaderName)
	if sid == "" {
		sid = r.URL.Query().Get("session_id")
	}
	return SanitizeSessionID(sid)
}

// IPFromRequest returns a normalized remote IP for rate limiting anonymous
// callers.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
