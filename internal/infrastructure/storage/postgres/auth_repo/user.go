// Package auth_repo provides the PostgreSQL user repository.
package auth_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/auth"
	"stockledger/internal/infrastructure/storage/postgres"
)

const userColumns = `id, login_id, email, password_hash, full_name,
	is_active, last_login_at, created_at, updated_at`

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

var _ auth.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		user.ID, user.LoginID, user.Email, user.PasswordHash, user.FullName,
		user.IsActive, user.LastLoginAt, user.CreatedAt, user.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return apperror.NewDuplicate("user", "loginId or email", user.LoginID).WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, "id = $1", userID.String(), userID)
}

// GetByLogin retrieves the user whose login id or email equals login.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*auth.User, error) {
	return r.getOne(ctx, "login_id = $1 OR email = lower($1)", login, login)
}

func (r *UserRepo) getOne(ctx context.Context, where, key string, arg any) (*auth.User, error) {
	var user auth.User
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, arg,
	).Scan(
		&user.ID, &user.LoginID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.IsActive, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Exists reports which of login id and email are already taken.
func (r *UserRepo) Exists(ctx context.Context, loginID, email string) (bool, bool, error) {
	var loginTaken, emailTaken bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM users WHERE login_id = $1),
			EXISTS (SELECT 1 FROM users WHERE email = $2)
	`, loginID, email).Scan(&loginTaken, &emailTaken)
	if err != nil {
		return false, false, fmt.Errorf("check user exists: %w", err)
	}
	return loginTaken, emailTaken, nil
}

// UpdateLastLogin records a successful login.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID id.ID, at time.Time) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`,
		userID, at,
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
