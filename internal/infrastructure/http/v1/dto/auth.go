package dto

import (
	"time"

	"stockledger/internal/domain/auth"
)

// --- Request DTOs ---

// SignupRequest for user registration.
type SignupRequest struct {
	LoginID  string `json:"login_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name,omitempty"`
}

// ToDomain converts to the domain request.
func (r *SignupRequest) ToDomain() auth.SignupRequest {
	return auth.SignupRequest{
		LoginID:  r.LoginID,
		Email:    r.Email,
		Password: r.Password,
		FullName: r.FullName,
	}
}

// LoginRequest accepts the login id or the email in Login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{
		Login:    r.Login,
		Password: r.Password,
	}
}

// --- Response DTOs ---

// UserResponse represents user in API response.
type UserResponse struct {
	ID          string     `json:"id"`
	LoginID     string     `json:"login_id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromUser creates response from domain user.
func FromUser(u *auth.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID.String(),
		LoginID:     u.LoginID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// TokenResponse represents an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginResponse includes the token and user info.
type LoginResponse struct {
	Token *TokenResponse `json:"token"`
	User  *UserResponse  `json:"user"`
}

// NewLoginResponse builds the login response.
func NewLoginResponse(token *auth.Token, user *auth.User) LoginResponse {
	return LoginResponse{
		Token: &TokenResponse{
			AccessToken: token.AccessToken,
			TokenType:   "Bearer",
			ExpiresAt:   token.ExpiresAt,
		},
		User: FromUser(user),
	}
}
