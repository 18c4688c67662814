package catalog_repo

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents"
)

// References implements documents.References over the catalog tables.
type References struct {
	products   *ProductRepo
	warehouses *WarehouseRepo
}

var _ documents.References = (*References)(nil)

// NewReferences creates a reference checker.
func NewReferences(products *ProductRepo, warehouses *WarehouseRepo) *References {
	return &References{products: products, warehouses: warehouses}
}

// MissingProducts implements documents.References.
func (r *References) MissingProducts(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	return r.products.MissingIDs(ctx, ids)
}

// MissingWarehouses implements documents.References.
func (r *References) MissingWarehouses(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	return r.warehouses.MissingIDs(ctx, ids)
}
