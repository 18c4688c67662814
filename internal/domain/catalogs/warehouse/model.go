// Package warehouse provides the Warehouse catalog.
// Warehouses are the physical locations stock is kept in.
package warehouse

import (
	"context"
	"regexp"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// Warehouse represents a storage location for goods.
type Warehouse struct {
	entity.Catalog

	// Code is the unique short name, e.g. WH-MAIN
	Code string `db:"code" json:"code"`

	// Location is the physical address
	Location string `db:"location" json:"location"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewWarehouse creates a new Warehouse with required fields.
func NewWarehouse(code, name string) *Warehouse {
	return &Warehouse{
		Catalog: entity.NewCatalog(name),
		Code:    code,
	}
}

// NaturalKey implements domain.CatalogEntity.
func (w *Warehouse) NaturalKey() (string, string) {
	return "code", w.Code
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	if err := w.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !codePattern.MatchString(w.Code) {
		return apperror.NewValidation("code must be 1-32 letters, digits, '-' or '_'").
			WithDetail("field", "code").
			WithDetail("value", w.Code)
	}

	return nil
}

func (w *Warehouse) normalize() {
	w.Code = strings.ToUpper(strings.TrimSpace(w.Code))
	w.Name = strings.TrimSpace(w.Name)
	w.Location = strings.TrimSpace(w.Location)
}
