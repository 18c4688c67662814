package stock

import (
	"context"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Reader is the read side of the stock table.
type Reader interface {
	// Get returns the quantity of one pair, 0 when there is no row.
	Get(ctx context.Context, key entity.StockKey) (int64, error)

	// Quantities returns the quantity of every key (absent = 0).
	Quantities(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error)

	ListBalances(ctx context.Context, filter BalanceFilter) (domain.ListResult[Level], error)

	// Totals sums the quantity of each product over all warehouses.
	// Products without stock rows are absent from the result.
	Totals(ctx context.Context, productIDs []id.ID) (map[id.ID]int64, error)
}

// Writer mutates the stock table. Every method requires a transaction in
// ctx and fails with an internal error without one.
type Writer interface {
	// LockForUpdate locks the rows of keys in sorted order and returns
	// their quantities. Missing rows read as 0.
	LockForUpdate(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error)

	// ApplyDelta adds delta to the row, creating it when absent, and
	// returns the new quantity. A negative result is InsufficientStock.
	ApplyDelta(ctx context.Context, key entity.StockKey, delta int64) (int64, error)

	// SetAbsolute forces the quantity and returns the applied delta.
	SetAbsolute(ctx context.Context, key entity.StockKey, value int64) (int64, error)
}

// Repository is implemented by the PostgreSQL stock table.
type Repository interface {
	Reader
	Writer
}
