package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	PasswordMinLength int
	BcryptCost        int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		PasswordMinLength: 8,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// Service provides signup, login and current-user lookup.
type Service struct {
	userRepo   UserRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:   userRepo,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
	}
}

// Signup registers a new user.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	req.normalize()

	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(req.LoginID, req.Email, string(passwordHash))
	user.FullName = req.FullName
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		loginTaken, emailTaken, err := s.userRepo.Exists(ctx, user.LoginID, user.Email)
		if err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}
		if loginTaken {
			return apperror.NewDuplicate("user", "login_id", user.LoginID)
		}
		if emailTaken {
			return apperror.NewDuplicate("user", "email", user.Email)
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered",
		"user_id", user.ID,
		"login_id", user.LoginID)

	return user, nil
}

// Login authenticates a user by login id or email and issues a token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *User, error) {
	login := strings.TrimSpace(creds.Login)
	if login == "" || creds.Password == "" {
		return nil, nil, apperror.NewValidation("login and password are required")
	}

	user, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		logger.Warn(ctx, "login failed", "login", login)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Warn(ctx, "failed to update last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID)

	return &Token{AccessToken: accessToken, ExpiresAt: expiresAt}, user, nil
}

// Me returns the user carried by ctx.
func (s *Service) Me(ctx context.Context) (*User, error) {
	raw := appctx.GetUserID(ctx)
	if raw == "" {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	userID, err := id.Parse(raw)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid user id in token")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("user no longer exists")
		}
		return nil, err
	}
	return user, nil
}

// ValidateToken exposes token validation to the HTTP middleware.
func (s *Service) ValidateToken(token string) (*appctx.UserContext, error) {
	user, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token").WithCause(err)
	}
	return user, nil
}
