// Package auth provides user signup, login and token validation.
package auth

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

var loginIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

// User represents a system user.
type User struct {
	ID           id.ID      `db:"id" json:"id"`
	LoginID      string     `db:"login_id" json:"login_id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// NewUser creates a new active user.
func NewUser(loginID, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		LoginID:      loginID,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if !loginIDPattern.MatchString(u.LoginID) {
		return apperror.NewValidation("login id must be 3-64 letters, digits, '.', '_' or '-'").
			WithDetail("field", "login_id")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperror.NewValidation("email is invalid").WithDetail("field", "email")
	}
	return nil
}

// CanLogin checks if user can login.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	return nil
}

// SignupRequest is the input of Service.Signup.
type SignupRequest struct {
	LoginID  string
	Email    string
	Password string
	FullName string
}

func (r *SignupRequest) normalize() {
	r.LoginID = strings.TrimSpace(r.LoginID)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

// Credentials identify a user by login id or email.
type Credentials struct {
	Login    string
	Password string
}

// Token is an issued access token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}
