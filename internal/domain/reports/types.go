// Package reports provides the dashboard: KPIs, the low-stock list and
// recent ledger activity.
package reports

import (
	"stockledger/internal/domain/stock"
)

// Counts are the KPIs computed directly in SQL.
type Counts struct {
	TotalProducts     int64 `db:"total_products" json:"total_products"`
	OutOfStockItems   int64 `db:"out_of_stock" json:"out_of_stock_items"`
	PendingReceipts   int64 `db:"pending_receipts" json:"pending_receipts"`
	PendingDeliveries int64 `db:"pending_deliveries" json:"pending_deliveries"`
	PendingTransfers  int64 `db:"pending_transfers" json:"pending_transfers"`
}

// KPIs is the dashboard summary.
type KPIs struct {
	Counts

	// LowStockItems counts products with at least one stock row matching
	// the low-stock rule
	LowStockItems int64 `json:"low_stock_items"`
}

// LowStockItem is a stock row matching the low-stock rule.
type LowStockItem = stock.Level
