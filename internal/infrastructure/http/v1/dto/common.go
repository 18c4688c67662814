// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// --- Pagination ---

// PageRequest contains limit/offset query parameters.
type PageRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps the items of a domain list result.
func NewListResponse[T any, R any](result domain.ListResult[T], mapFn func(T) R) ListResponse {
	items := make([]R, len(result.Items))
	for i, item := range result.Items {
		items[i] = mapFn(item)
	}
	return ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
}

// --- IDs ---

// ParseID parses a required id field.
func ParseID(field, value string) (id.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return id.ID{}, apperror.NewValidation(field + " is required").
			WithDetail("field", field)
	}
	parsed, err := id.Parse(value)
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return parsed, nil
}

// ParseOptionalID parses an id field that may be absent.
func ParseOptionalID(field string, value *string) (*id.ID, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := ParseID(field, *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
