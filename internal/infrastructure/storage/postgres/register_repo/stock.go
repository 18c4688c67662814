// Package register_repo provides the PostgreSQL stock table and movement
// ledger repositories.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/storage/postgres"
)

const stockLevelsTable = "stock_levels"

// StockRepo implements stock.Repository.
//
// Writes require the transaction carried by ctx; the ledger engine is the
// only caller of the write methods.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type quantityRow struct {
	entity.StockKey
	Quantity int64 `db:"quantity"`
}

func keyCondition(keys []entity.StockKey) squirrel.Or {
	cond := make(squirrel.Or, 0, len(keys))
	for _, k := range keys {
		cond = append(cond, squirrel.Eq{"product_id": k.ProductID, "warehouse_id": k.WarehouseID})
	}
	return cond
}

// Get returns the quantity of one pair, 0 when there is no row.
func (r *StockRepo) Get(ctx context.Context, key entity.StockKey) (int64, error) {
	var qty int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT quantity FROM stock_levels WHERE product_id = $1 AND warehouse_id = $2`,
		key.ProductID, key.WarehouseID,
	).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get stock level: %w", err)
	}
	return qty, nil
}

// Quantities returns the quantity of every key; keys without a row map to 0.
func (r *StockRepo) Quantities(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error) {
	return r.selectQuantities(ctx, entity.SortedKeys(keys), "")
}

func (r *StockRepo) selectQuantities(ctx context.Context, keys []entity.StockKey, suffix string) (map[entity.StockKey]int64, error) {
	out := make(map[entity.StockKey]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	for _, k := range keys {
		out[k] = 0
	}

	q := r.builder.
		Select("product_id", "warehouse_id", "quantity").
		From(stockLevelsTable).
		Where(keyCondition(keys)).
		OrderBy("product_id", "warehouse_id")
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []quantityRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock levels: %w", err)
	}
	for _, row := range rows {
		out[row.StockKey] = row.Quantity
	}
	return out, nil
}

// LockForUpdate creates missing rows with quantity 0 and locks every row
// of keys in (product_id, warehouse_id) order.
func (r *StockRepo) LockForUpdate(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error) {
	tx, err := r.txManager.RequireTx(ctx, "LockForUpdate")
	if err != nil {
		return nil, err
	}

	sorted := entity.SortedKeys(keys)
	if len(sorted) == 0 {
		return map[entity.StockKey]int64{}, nil
	}

	insert := r.builder.
		Insert(stockLevelsTable).
		Columns("product_id", "warehouse_id", "quantity")
	for _, k := range sorted {
		insert = insert.Values(k.ProductID, k.WarehouseID, int64(0))
	}
	sql, args, err := insert.Suffix("ON CONFLICT (product_id, warehouse_id) DO NOTHING").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, apperror.NewValidation("stock row references an unknown product or warehouse").WithCause(err)
		}
		return nil, fmt.Errorf("create stock rows: %w", err)
	}

	return r.selectQuantities(ctx, sorted, "FOR UPDATE")
}

// ApplyDelta adds delta to the row, creating it when absent. A result
// below zero is refused with InsufficientStock and leaves the row as is.
func (r *StockRepo) ApplyDelta(ctx context.Context, key entity.StockKey, delta int64) (int64, error) {
	tx, err := r.txManager.RequireTx(ctx, "ApplyDelta")
	if err != nil {
		return 0, err
	}

	var after int64
	if delta >= 0 {
		err = tx.QueryRow(ctx, `
			INSERT INTO stock_levels (product_id, warehouse_id, quantity, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (product_id, warehouse_id)
			DO UPDATE SET quantity = stock_levels.quantity + EXCLUDED.quantity, updated_at = NOW()
			RETURNING quantity
		`, key.ProductID, key.WarehouseID, delta).Scan(&after)
		if err != nil {
			return 0, fmt.Errorf("increase stock: %w", err)
		}
		return after, nil
	}

	err = tx.QueryRow(ctx, `
		UPDATE stock_levels
		SET quantity = quantity + $3, updated_at = NOW()
		WHERE product_id = $1 AND warehouse_id = $2 AND quantity + $3 >= 0
		RETURNING quantity
	`, key.ProductID, key.WarehouseID, delta).Scan(&after)
	if errors.Is(err, pgx.ErrNoRows) {
		available, getErr := r.Get(ctx, key)
		if getErr != nil {
			return 0, getErr
		}
		return 0, apperror.NewInsufficientStock(key.ProductID.String(), key.WarehouseID.String(), -delta, available)
	}
	if err != nil {
		return 0, fmt.Errorf("decrease stock: %w", err)
	}
	return after, nil
}

// SetAbsolute forces the quantity and returns the applied delta.
func (r *StockRepo) SetAbsolute(ctx context.Context, key entity.StockKey, value int64) (int64, error) {
	if value < 0 {
		return 0, apperror.NewValidation("stock quantity cannot be negative").
			WithDetail("product_id", key.ProductID.String()).
			WithDetail("warehouse_id", key.WarehouseID.String())
	}

	before, err := r.LockForUpdate(ctx, []entity.StockKey{key})
	if err != nil {
		return 0, err
	}

	tx, err := r.txManager.RequireTx(ctx, "SetAbsolute")
	if err != nil {
		return 0, err
	}
	_, err = tx.Exec(ctx, `
		UPDATE stock_levels SET quantity = $3, updated_at = NOW()
		WHERE product_id = $1 AND warehouse_id = $2
	`, key.ProductID, key.WarehouseID, value)
	if err != nil {
		return 0, fmt.Errorf("set stock: %w", err)
	}
	return value - before[key], nil
}

// ListBalances returns stock rows joined with product and warehouse names.
func (r *StockRepo) ListBalances(ctx context.Context, filter stock.BalanceFilter) (domain.ListResult[stock.Level], error) {
	result := domain.ListResult[stock.Level]{
		Items:  []stock.Level{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := BalancesQuery(r.builder, filter)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count balances: %w", err)
	}

	q = q.OrderBy("p.sku", "w.code")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select balances: %w", err)
	}
	return result, nil
}

// BalancesQuery selects stock.Level rows for filter without ordering or
// paging. The dashboard reuses it.
func BalancesQuery(b squirrel.StatementBuilderType, filter stock.BalanceFilter) squirrel.SelectBuilder {
	q := b.Select(
		"s.product_id", "s.warehouse_id", "s.quantity", "s.updated_at",
		"p.sku", "p.name AS product_name", "p.reorder_level",
		"w.code AS warehouse_code", "w.name AS warehouse_name",
	).
		From(stockLevelsTable + " s").
		Join("products p ON p.id = s.product_id").
		Join("warehouses w ON w.id = s.warehouse_id")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"s.product_id": *filter.ProductID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"s.warehouse_id": *filter.WarehouseID})
	}
	if !filter.IncludeZero {
		q = q.Where(squirrel.Gt{"s.quantity": int64(0)})
	}
	return q
}

type totalRow struct {
	ProductID id.ID `db:"product_id"`
	Total     int64 `db:"total"`
}

// Totals implements stock.Reader.
func (r *StockRepo) Totals(ctx context.Context, productIDs []id.ID) (map[id.ID]int64, error) {
	out := make(map[id.ID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	sql, args, err := TotalsQuery(r.builder, productIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []totalRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock totals: %w", err)
	}
	for _, row := range rows {
		out[row.ProductID] = row.Total
	}
	return out, nil
}

// TotalsQuery sums stock_levels per product for productIDs.
func TotalsQuery(b squirrel.StatementBuilderType, productIDs []id.ID) squirrel.SelectBuilder {
	return b.Select("product_id", "COALESCE(SUM(quantity), 0) AS total").
		From(stockLevelsTable).
		Where(squirrel.Eq{"product_id": productIDs}).
		GroupBy("product_id")
}
