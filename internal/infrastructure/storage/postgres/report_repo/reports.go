// Package report_repo provides the PostgreSQL implementation of the
// dashboard repository.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/reports"
	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/register_repo"
)

// countsSQL computes every SQL-side KPI in one statement. $1 is an
// optional warehouse id.
//
// A product is out of stock in the scope when it has no stock row there
// or every row is zero.
const countsSQL = `
	SELECT
		(SELECT COUNT(*) FROM products) AS total_products,
		(SELECT COUNT(*) FROM products p
		  WHERE NOT EXISTS (
			SELECT 1 FROM stock_levels s
			WHERE s.product_id = p.id
			  AND s.quantity > 0
			  AND ($1::uuid IS NULL OR s.warehouse_id = $1::uuid)
		  )) AS out_of_stock,
		(SELECT COUNT(*) FROM documents
		  WHERE kind = 'receipt' AND status IN ('draft', 'waiting', 'ready')
		    AND ($1::uuid IS NULL OR warehouse_id = $1::uuid)) AS pending_receipts,
		(SELECT COUNT(*) FROM documents
		  WHERE kind = 'delivery' AND status IN ('draft', 'waiting', 'ready')
		    AND ($1::uuid IS NULL OR warehouse_id = $1::uuid)) AS pending_deliveries,
		(SELECT COUNT(*) FROM documents
		  WHERE kind = 'transfer' AND status IN ('draft', 'waiting', 'ready')
		    AND ($1::uuid IS NULL OR from_warehouse_id = $1::uuid OR to_warehouse_id = $1::uuid)) AS pending_transfers
`

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Counts implements reports.Repository.
func (r *ReportRepo) Counts(ctx context.Context, warehouseID *id.ID) (reports.Counts, error) {
	var counts reports.Counts
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &counts, countsSQL, warehouseID); err != nil {
		return counts, fmt.Errorf("dashboard counts: %w", err)
	}
	return counts, nil
}

// StockRows implements reports.Repository. Zero rows are included so the
// low-stock rule sees them.
func (r *ReportRepo) StockRows(ctx context.Context, warehouseID *id.ID) ([]stock.Level, error) {
	q := register_repo.BalancesQuery(r.builder, stock.BalanceFilter{
		WarehouseID: warehouseID,
		IncludeZero: true,
	}).OrderBy("s.quantity ASC", "p.sku")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := []stock.Level{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("dashboard stock rows: %w", err)
	}
	return rows, nil
}
