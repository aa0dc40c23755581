// Package domain contains core domain types for the PrepAI application.
package domain

import (
	"strings"
	"time"
)

// SubscriptionFree is the tier assigned at signup.
const SubscriptionFree = "free"

// User is a registered account.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Picture          string     `json:"picture,omitempty"`
	PasswordHash     string     `json:"-"`
	SubscriptionTier string     `json:"subscription_tier"`
	TotalLoginCount  int        `json:"total_login_count"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
}

// Name returns the display name.
func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
