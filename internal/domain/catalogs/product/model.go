// Package product provides the Product catalog: the items whose quantities
// are tracked per warehouse.
package product

import (
	"context"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
)

// DefaultUnitOfMeasure is used when none is given.
const DefaultUnitOfMeasure = "pcs"

// Product is a stock-keeping unit.
type Product struct {
	entity.Catalog

	// SKU is the unique business key
	SKU string `db:"sku" json:"sku"`

	Category *string `db:"category" json:"category,omitempty"`

	UnitOfMeasure string `db:"unit_of_measure" json:"unit_of_measure"`

	// ReorderLevel is the quantity at or below which stock is considered low
	ReorderLevel int64 `db:"reorder_level" json:"reorder_level"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(sku, name string) *Product {
	return &Product{
		Catalog:       entity.NewCatalog(name),
		SKU:           sku,
		UnitOfMeasure: DefaultUnitOfMeasure,
	}
}

// NaturalKey implements domain.CatalogEntity.
func (p *Product) NaturalKey() (string, string) {
	return "sku", p.SKU
}

// Normalize trims user input and fills defaults.
func (p *Product) Normalize() {
	p.SKU = strings.TrimSpace(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	p.UnitOfMeasure = strings.TrimSpace(p.UnitOfMeasure)
	if p.UnitOfMeasure == "" {
		p.UnitOfMeasure = DefaultUnitOfMeasure
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		p.Category = nil
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if len(p.SKU) > 64 {
		return apperror.NewValidation("sku is too long").
			WithDetail("field", "sku").
			WithDetail("max", 64)
	}

	if p.ReorderLevel < 0 {
		return apperror.NewValidation("reorder level cannot be negative").
			WithDetail("field", "reorder_level")
	}

	return nil
}

// InitialStock is an opening quantity recorded when a product is created.
type InitialStock struct {
	WarehouseID id.ID
	Quantity    int64
}
