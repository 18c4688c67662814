// Package entity provides the base types shared by catalogs, documents
// and stock register rows.
package entity

import (
	"context"
	"time"

	"stockledger/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains the identity and timestamps of every stored row.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewBaseEntity creates a new BaseEntity with generated ID and timestamps.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// GetID returns the entity ID.
func (b *BaseEntity) GetID() id.ID {
	return b.ID
}
