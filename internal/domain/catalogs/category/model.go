// Package category provides the product category list. Products carry the
// category name as free text; registered categories add a description and
// make a category visible before any product uses it.
package category

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// maxNameLength matches products.category.
const maxNameLength = 128

// Category is one entry of the category list.
type Category struct {
	// ID is nil for a name only used by products and never registered
	ID *id.ID `db:"id"`

	Name        string  `db:"name"`
	Description *string `db:"description"`

	// ProductCount is the number of products in the category
	ProductCount int64 `db:"product_count"`

	CreatedAt *time.Time `db:"created_at"`
}

// New creates a registered category.
func New(name string, description *string) *Category {
	catID := id.New()
	now := time.Now().UTC()
	c := &Category{
		ID:          &catID,
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   &now,
	}
	if c.Description != nil {
		d := strings.TrimSpace(*c.Description)
		if d == "" {
			c.Description = nil
		} else {
			c.Description = &d
		}
	}
	return c
}

// Validate checks the name.
func (c *Category) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("category name is required").
			WithDetail("field", "name")
	}
	if utf8.RuneCountInString(c.Name) > maxNameLength {
		return apperror.NewValidation("category name is too long").
			WithDetail("field", "name").
			WithDetail("max", maxNameLength)
	}
	return nil
}

// Repository stores registered categories.
type Repository interface {
	// Create inserts the category. A taken name is a Duplicate error.
	Create(ctx context.Context, c *Category) error

	// List returns registered categories and the names products use,
	// ordered by name.
	List(ctx context.Context) ([]Category, error)
}
