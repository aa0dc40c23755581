package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/prepai/server/internal/domain"
	"github.com/prepai/server/internal/identity"
	"github.com/prepai/server/internal/store"
)

const minPasswordLength = 8

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Signup registers an account and returns a token for it.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := domain.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		Error(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:           email,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		PasswordHash:    string(hash),
		TotalLoginCount: 1,
		CreatedAt:       now,
		LastLogin:       &now,
	}
	if err := h.repo.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			Error(w, http.StatusConflict, "email already registered")
			return
		}
		slog.Error("Failed to create user", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	token, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		slog.Error("Failed to issue token", "user_id", user.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.logActivity(r, user.ID, user.Email, domain.ActivitySignup, "Account Created", nil)
	JSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login verifies credentials and returns a fresh token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.repo.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("Failed to load user", "error", err)
		Error(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	now := time.Now().UTC()
	if err := h.repo.RecordLogin(r.Context(), user.ID, now); err != nil {
		slog.Warn("Failed to record login", "user_id", user.ID, "error", err)
	} else {
		user.TotalLoginCount++
		user.LastLogin = &now
	}

	token, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		slog.Error("Failed to issue token", "user_id", user.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.logActivity(r, user.ID, user.Email, domain.ActivityLogin, "User Login", nil)
	JSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout revokes the caller's token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.PrincipalFromContext(r.Context())
	if err := h.issuer.Revoke(r.Context(), p); err != nil {
		slog.Error("Failed to revoke token", "user_id", p.UserID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	h.logActivity(r, p.UserID, p.Email, domain.ActivityLogout, "User Logout", nil)
	JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// currentUser loads the principal's account, writing 401 when it is gone.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	user, err := h.repo.GetUserByID(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusUnauthorized, "user not found")
		return nil, false
	}
	if err != nil {
		slog.Error("Failed to load user", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load user")
		return nil, false
	}
	return user, true
}

// logActivity records a timeline entry; failures are logged only.
func (h *Handler) logActivity(r *http.Request, userID, email, activityType, name string, meta map[string]any) {
	if userID == "" {
		return
	}
	err := h.repo.LogActivity(r.Context(), &domain.Activity{
		UserID:       userID,
		Email:        email,
		ActivityType: activityType,
		ActivityName: name,
		Metadata:     meta,
	})
	if err != nil {
		slog.Warn("Failed to log activity", "user_id", userID, "activity", name, "error", err)
	}
}
