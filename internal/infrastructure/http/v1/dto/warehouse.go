package dto

import (
	"time"

	"stockledger/internal/domain/catalogs/warehouse"
)

// --- Request DTOs ---

// CreateWarehouseRequest is the request body for creating a warehouse.
type CreateWarehouseRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Location    string  `json:"location"`
	Description *string `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateWarehouseRequest) ToEntity() *warehouse.Warehouse {
	wh := warehouse.NewWarehouse(r.Code, r.Name)
	wh.Location = r.Location
	wh.Description = r.Description
	return wh
}

// UpdateWarehouseRequest is the request body for updating a warehouse.
// Omitted fields keep their value.
type UpdateWarehouseRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	Version     *int    `json:"version"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateWarehouseRequest) ApplyTo(wh *warehouse.Warehouse) {
	if r.Code != nil {
		wh.Code = *r.Code
	}
	if r.Name != nil {
		wh.Name = *r.Name
	}
	if r.Location != nil {
		wh.Location = *r.Location
	}
	if r.Description != nil {
		wh.Description = r.Description
	}
	if r.Version != nil {
		wh.Version = *r.Version
	}
}

// --- Response DTOs ---

// WarehouseResponse is the response body for a warehouse.
type WarehouseResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Description *string   `json:"description,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromWarehouse creates response DTO from domain entity.
func FromWarehouse(wh *warehouse.Warehouse) *WarehouseResponse {
	return &WarehouseResponse{
		ID:          wh.ID.String(),
		Code:        wh.Code,
		Name:        wh.Name,
		Location:    wh.Location,
		Description: wh.Description,
		Version:     wh.Version,
		CreatedAt:   wh.CreatedAt,
		UpdatedAt:   wh.UpdatedAt,
	}
}
