package dto

import (
	"time"

	"stockledger/internal/domain/catalogs/category"
)

// CreateCategoryRequest is the request body for registering a category.
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// CategoryResponse is one entry of the category list. Names used by
// products but never registered carry no id.
type CategoryResponse struct {
	ID           *string    `json:"id,omitempty"`
	Name         string     `json:"name"`
	Description  *string    `json:"description,omitempty"`
	ProductCount int64      `json:"product_count"`
	Registered   bool       `json:"registered"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// FromCategory converts a category to response DTO.
func FromCategory(c category.Category) CategoryResponse {
	resp := CategoryResponse{
		Name:         c.Name,
		Description:  c.Description,
		ProductCount: c.ProductCount,
		Registered:   c.ID != nil,
		CreatedAt:    c.CreatedAt,
	}
	if c.ID != nil {
		s := c.ID.String()
		resp.ID = &s
	}
	return resp
}
