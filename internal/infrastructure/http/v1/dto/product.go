package dto

import (
	"time"

	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
// InitialStock, when positive, is received into WarehouseID through a
// validated receipt.
type CreateProductRequest struct {
	SKU           string         `json:"sku" binding:"required"`
	Name          string         `json:"name" binding:"required"`
	Category      *string        `json:"category"`
	UnitOfMeasure string         `json:"unit_of_measure"`
	ReorderLevel  int64          `json:"reorder_level" binding:"min=0"`
	Description   *string        `json:"description"`
	InitialStock  types.Quantity `json:"initial_stock" binding:"min=0"`
	WarehouseID   *string        `json:"warehouse_id"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.SKU, r.Name)
	p.Category = r.Category
	if r.UnitOfMeasure != "" {
		p.UnitOfMeasure = r.UnitOfMeasure
	}
	p.ReorderLevel = r.ReorderLevel
	p.Description = r.Description
	return p
}

// ToInitialStock returns the opening quantity, nil when none is requested.
func (r *CreateProductRequest) ToInitialStock() (*product.InitialStock, error) {
	if r.InitialStock == 0 {
		return nil, nil
	}
	warehouseID, err := ParseID("warehouse_id", deref(r.WarehouseID))
	if err != nil {
		return nil, err
	}
	return &product.InitialStock{WarehouseID: warehouseID, Quantity: r.InitialStock.Int64()}, nil
}

// UpdateProductRequest is the request body for updating a product.
// Omitted fields keep their value.
type UpdateProductRequest struct {
	SKU           *string `json:"sku"`
	Name          *string `json:"name"`
	Category      *string `json:"category"`
	UnitOfMeasure *string `json:"unit_of_measure"`
	ReorderLevel  *int64  `json:"reorder_level"`
	Description   *string `json:"description"`
	Version       *int    `json:"version"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.SKU != nil {
		p.SKU = *r.SKU
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Category != nil {
		p.Category = r.Category
	}
	if r.UnitOfMeasure != nil {
		p.UnitOfMeasure = *r.UnitOfMeasure
	}
	if r.ReorderLevel != nil {
		p.ReorderLevel = *r.ReorderLevel
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	if r.Version != nil {
		p.Version = *r.Version
	}
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID            string    `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Category      *string   `json:"category,omitempty"`
	UnitOfMeasure string    `json:"unit_of_measure"`
	ReorderLevel  int64     `json:"reorder_level"`
	Description   *string   `json:"description,omitempty"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// TotalStock is the quantity on hand over all warehouses
	TotalStock *int64 `json:"total_stock,omitempty"`

	// Stock is the per-warehouse breakdown, detail responses only
	Stock []StockLevelResponse `json:"stock,omitempty"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:            p.ID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		Category:      p.Category,
		UnitOfMeasure: p.UnitOfMeasure,
		ReorderLevel:  p.ReorderLevel,
		Description:   p.Description,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
