// Package stock provides the on-hand quantity table keyed by
// (product, warehouse). Only the ledger engine writes to it.
package stock

import (
	"time"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
)

// Level is one row of the stock table joined with catalog names.
type Level struct {
	entity.StockKey

	Quantity  int64     `db:"quantity" json:"quantity"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	SKU           string `db:"sku" json:"sku"`
	ProductName   string `db:"product_name" json:"product_name"`
	ReorderLevel  int64  `db:"reorder_level" json:"reorder_level"`
	WarehouseCode string `db:"warehouse_code" json:"warehouse_code"`
	WarehouseName string `db:"warehouse_name" json:"warehouse_name"`
}

// BalanceFilter narrows ListBalances.
type BalanceFilter struct {
	ProductID   *id.ID
	WarehouseID *id.ID

	// IncludeZero also returns rows whose quantity dropped to zero
	IncludeZero bool

	Limit  int
	Offset int
}
