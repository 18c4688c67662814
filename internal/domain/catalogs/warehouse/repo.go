package warehouse

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Repository defines the interface for Warehouse persistence.
type Repository interface {
	domain.CatalogRepository[*Warehouse]

	// IsReferenced reports whether stock rows or documents point at the
	// warehouse.
	IsReferenced(ctx context.Context, id id.ID) (bool, error)
}
