package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
)

const stockLedgerTable = "stock_ledger"

var ledgerColumns = []string{
	"id", "product_id", "warehouse_id", "movement_type",
	"reference_type", "reference_id", "reference_number",
	"quantity_change", "quantity_after", "user_id", "notes", "created_at",
}

// LedgerRepo implements ledger.Repository. Rows are only ever inserted.
type LedgerRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchInserter
	builder   squirrel.StatementBuilderType
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		batch:     postgres.NewBatchInserter(txManager),
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append copies entries into the ledger inside the current transaction.
func (r *LedgerRepo) Append(ctx context.Context, entries []ledger.Entry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		userID, err := parseUserID(e.UserID)
		if err != nil {
			return err
		}
		rows = append(rows, []any{
			e.ID, e.ProductID, e.WarehouseID, string(e.MovementType),
			e.ReferenceType, e.ReferenceID, e.ReferenceNumber,
			e.QuantityChange, e.QuantityAfter, userID, e.Notes, e.CreatedAt,
		})
	}

	if _, err := r.batch.CopyFromSlice(ctx, stockLedgerTable, ledgerColumns, rows); err != nil {
		return fmt.Errorf("append ledger entries: %w", err)
	}
	return nil
}

// parseUserID converts the acting user to the uuid column value.
func parseUserID(raw *string) (any, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	uid, err := id.Parse(*raw)
	if err != nil {
		return nil, fmt.Errorf("ledger user id %q: %w", *raw, err)
	}
	return uid, nil
}

// List returns entries newest first, joined with catalog names.
func (r *LedgerRepo) List(ctx context.Context, filter ledger.Filter) (domain.ListResult[ledger.Entry], error) {
	result := domain.ListResult[ledger.Entry]{
		Items:  []ledger.Entry{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.filteredSelect(filter)

	countSQL, countArgs, err := r.builder.
		Select("COUNT(*)").
		From(stockLedgerTable + " l").
		Where(filterCondition(filter)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count ledger: %w", err)
	}

	q = q.OrderBy("l.created_at DESC", "l.id DESC")
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
		return result, fmt.Errorf("select ledger: %w", err)
	}
	return result, nil
}

func (r *LedgerRepo) filteredSelect(filter ledger.Filter) squirrel.SelectBuilder {
	cols := make([]string, 0, len(ledgerColumns)+3)
	for _, c := range ledgerColumns {
		if c == "user_id" {
			cols = append(cols, "l.user_id::text AS user_id")
			continue
		}
		cols = append(cols, "l."+c)
	}
	cols = append(cols, "p.sku", "p.name AS product_name", "w.name AS warehouse_name")

	return r.builder.
		Select(cols...).
		From(stockLedgerTable + " l").
		LeftJoin("products p ON p.id = l.product_id").
		LeftJoin("warehouses w ON w.id = l.warehouse_id").
		Where(filterCondition(filter))
}

func filterCondition(filter ledger.Filter) squirrel.And {
	cond := squirrel.And{}
	if filter.ProductID != nil {
		cond = append(cond, squirrel.Eq{"l.product_id": *filter.ProductID})
	}
	if filter.WarehouseID != nil {
		cond = append(cond, squirrel.Eq{"l.warehouse_id": *filter.WarehouseID})
	}
	if filter.MovementType != nil {
		cond = append(cond, squirrel.Eq{"l.movement_type": string(*filter.MovementType)})
	}
	if filter.ReferenceType != nil {
		cond = append(cond, squirrel.Eq{"l.reference_type": *filter.ReferenceType})
	}
	if filter.ReferenceID != nil {
		cond = append(cond, squirrel.Eq{"l.reference_id": *filter.ReferenceID})
	}
	if filter.From != nil {
		cond = append(cond, squirrel.GtOrEq{"l.created_at": *filter.From})
	}
	if filter.To != nil {
		cond = append(cond, squirrel.LtOrEq{"l.created_at": *filter.To})
	}
	return cond
}

// Sum returns the total quantity change of one stock row.
func (r *LedgerRepo) Sum(ctx context.Context, key entity.StockKey) (int64, error) {
	var sum int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_change), 0)::bigint
		FROM stock_ledger
		WHERE product_id = $1 AND warehouse_id = $2
	`, key.ProductID, key.WarehouseID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum ledger: %w", err)
	}
	return sum, nil
}
