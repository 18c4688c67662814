package auth

import (
	"context"
	"time"

	"stockledger/internal/core/id"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByLogin finds a user whose login id or email equals login.
	GetByLogin(ctx context.Context, login string) (*User, error)

	// Exists reports which of the unique fields are already taken.
	Exists(ctx context.Context, loginID, email string) (loginTaken, emailTaken bool, err error)

	UpdateLastLogin(ctx context.Context, userID id.ID, at time.Time) error
}
