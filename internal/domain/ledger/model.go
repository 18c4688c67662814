// Package ledger provides the stock ledger engine: the only writer of the
// stock table, and the append-only movement history that explains it.
package ledger

import (
	"time"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
)

// Entry is one immutable row of the movement ledger.
type Entry struct {
	ID              id.ID               `db:"id" json:"id"`
	ProductID       id.ID               `db:"product_id" json:"product_id"`
	WarehouseID     id.ID               `db:"warehouse_id" json:"warehouse_id"`
	MovementType    entity.MovementType `db:"movement_type" json:"movement_type"`
	ReferenceType   string              `db:"reference_type" json:"reference_type"`
	ReferenceID     id.ID               `db:"reference_id" json:"reference_id"`
	ReferenceNumber string              `db:"reference_number" json:"reference_number"`
	QuantityChange  int64               `db:"quantity_change" json:"quantity_change"`
	QuantityAfter   int64               `db:"quantity_after" json:"quantity_after"`
	UserID          *string             `db:"user_id" json:"user_id,omitempty"`
	Notes           string              `db:"notes" json:"notes"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`

	// Filled by queries that join the catalogs
	SKU           *string `db:"sku" json:"sku,omitempty"`
	ProductName   *string `db:"product_name" json:"product_name,omitempty"`
	WarehouseName *string `db:"warehouse_name" json:"warehouse_name,omitempty"`
}

// Key returns the stock row the entry belongs to.
func (e Entry) Key() entity.StockKey {
	return entity.StockKey{ProductID: e.ProductID, WarehouseID: e.WarehouseID}
}

// Filter narrows ledger queries. Results are newest first.
type Filter struct {
	ProductID     *id.ID
	WarehouseID   *id.ID
	MovementType  *entity.MovementType
	ReferenceType *string
	ReferenceID   *id.ID
	From          *time.Time
	To            *time.Time

	Limit  int
	Offset int
}

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

func (f *Filter) normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Reconciliation compares the stock row with the sum of its ledger entries.
type Reconciliation struct {
	entity.StockKey

	StockQuantity int64 `json:"stock_quantity"`
	LedgerSum     int64 `json:"ledger_sum"`
	Consistent    bool  `json:"consistent"`
}
