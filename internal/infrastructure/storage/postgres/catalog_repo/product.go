package catalog_repo

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/infrastructure/storage/postgres"
)

const productTable = "products"

var productReferences = []reference{
	{table: "stock_levels", column: "product_id"},
	{table: "document_lines", column: "product_id"},
	{table: "stock_ledger", column: "product_id"},
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product](
			txManager,
			productTable,
			"product",
			"sku",
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// IsReferenced implements product.Repository.
func (r *ProductRepo) IsReferenced(ctx context.Context, productID id.ID) (bool, error) {
	return r.referencedBy(ctx, productID, productReferences)
}
