package reports

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/stock"
)

// Repository defines dashboard data access.
type Repository interface {
	// Counts returns the SQL-side KPIs, optionally for one warehouse.
	Counts(ctx context.Context, warehouseID *id.ID) (Counts, error)

	// StockRows returns every stock row with its product reorder level.
	StockRows(ctx context.Context, warehouseID *id.ID) ([]stock.Level, error)
}

// ActivitySource lists ledger entries; ledger.Repository satisfies it.
type ActivitySource interface {
	List(ctx context.Context, filter ledger.Filter) (domain.ListResult[ledger.Entry], error)
}
