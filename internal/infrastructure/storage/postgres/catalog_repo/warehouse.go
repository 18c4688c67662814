package catalog_repo

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/warehouse"
	"stockledger/internal/infrastructure/storage/postgres"
)

const warehouseTable = "warehouses"

var warehouseReferences = []reference{
	{table: "stock_levels", column: "warehouse_id"},
	{table: "documents", column: "warehouse_id"},
	{table: "documents", column: "from_warehouse_id"},
	{table: "documents", column: "to_warehouse_id"},
	{table: "stock_ledger", column: "warehouse_id"},
}

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	*BaseCatalogRepo[*warehouse.Warehouse]
}

var _ warehouse.Repository = (*WarehouseRepo)(nil)

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*warehouse.Warehouse](
			txManager,
			warehouseTable,
			"warehouse",
			"code",
			postgres.ExtractDBColumns[warehouse.Warehouse](),
			func() *warehouse.Warehouse { return &warehouse.Warehouse{} },
		),
	}
}

// IsReferenced implements warehouse.Repository.
func (r *WarehouseRepo) IsReferenced(ctx context.Context, warehouseID id.ID) (bool, error) {
	return r.referencedBy(ctx, warehouseID, warehouseReferences)
}
