package entity

import (
	"context"
	"strings"

	"stockledger/internal/core/apperror"
)

// Catalog is the base type for reference data: products and warehouses.
type Catalog struct {
	BaseEntity

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Name:       name,
		Version:    1,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// GetVersion returns the optimistic lock version.
func (c *Catalog) GetVersion() int {
	return c.Version
}
