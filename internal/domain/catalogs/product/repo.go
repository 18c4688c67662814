package product

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// IsReferenced reports whether stock rows, document lines or ledger
	// entries point at the product.
	IsReferenced(ctx context.Context, id id.ID) (bool, error)
}
