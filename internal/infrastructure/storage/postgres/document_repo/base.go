// Package document_repo provides the PostgreSQL implementation of the
// movement document repository.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/documents"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	documentsTable = "documents"
	linesTable     = "document_lines"
)

var lineColumns = []string{
	"document_id", "line_no", "product_id",
	"quantity", "unit_price", "recorded_quantity", "physical_quantity",
}

// lineRow is a document line together with its owner.
type lineRow struct {
	DocumentID id.ID `db:"document_id"`
	documents.Line
}

// DocumentRepo implements documents.Repository.
type DocumentRepo struct {
	txManager  *postgres.TxManager
	batch      *postgres.BatchInserter
	selectCols []string
}

var _ documents.Repository = (*DocumentRepo)(nil)

// NewDocumentRepo creates a new document repository.
func NewDocumentRepo(txManager *postgres.TxManager) *DocumentRepo {
	return &DocumentRepo{
		txManager:  txManager,
		batch:      postgres.NewBatchInserter(txManager),
		selectCols: postgres.ExtractDBColumns[documents.Document](),
	}
}

// Builder returns a new squirrel builder.
func (r *DocumentRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *DocumentRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(documentsTable)
}

// Create inserts the document header. Lines are written by SaveLines.
func (r *DocumentRepo) Create(ctx context.Context, doc *documents.Document) error {
	data := postgres.StructToMap(doc)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	sql, args, err := r.Builder().
		Insert(documentsTable).
		SetMap(filteredData).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, doc)
	}
	return nil
}

// GetByID loads the document header and lines.
func (r *DocumentRepo) GetByID(ctx context.Context, docID id.ID) (*documents.Document, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID)
}

// GetForUpdate loads the document and locks its header row.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, docID id.ID) (*documents.Document, error) {
	if _, err := r.txManager.RequireTx(ctx, "GetForUpdate"); err != nil {
		return nil, err
	}
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}).Suffix("FOR UPDATE"), docID)
}

func (r *DocumentRepo) get(ctx context.Context, q squirrel.SelectBuilder, docID id.ID) (*documents.Document, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	doc := &documents.Document{}
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", docID.String())
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	lines, err := r.loadLines(ctx, []id.ID{doc.ID})
	if err != nil {
		return nil, err
	}
	doc.Lines = lines[doc.ID]
	if doc.Lines == nil {
		doc.Lines = []documents.Line{}
	}
	return doc, nil
}

// UpdateHeader writes header fields other than status.
func (r *DocumentRepo) UpdateHeader(ctx context.Context, doc *documents.Document) error {
	sql, args, err := r.Builder().
		Update(documentsTable).
		Set("warehouse_id", doc.WarehouseID).
		Set("from_warehouse_id", doc.FromWarehouseID).
		Set("to_warehouse_id", doc.ToWarehouseID).
		Set("partner", doc.Partner).
		Set("notes", doc.Notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": doc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapWriteError(err, doc)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("document", doc.ID.String())
	}
	return nil
}

// UpdateStatus sets status and updated_at.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, docID id.ID, status entity.Status) error {
	sql, args, err := r.Builder().
		Update(documentsTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("document", docID.String())
	}
	return nil
}

// SaveLines replaces all lines of the document (delete existing + copy new).
func (r *DocumentRepo) SaveLines(ctx context.Context, docID id.ID, lines []documents.Line) error {
	tx, err := r.txManager.RequireTx(ctx, "SaveLines")
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM "+linesTable+" WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	rows := make([][]any, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, []any{
			docID, line.LineNo, line.ProductID,
			line.Quantity, line.UnitPrice, line.RecordedQuantity, line.PhysicalQuantity,
		})
	}

	if _, err := r.batch.CopyFromSlice(ctx, linesTable, lineColumns, rows); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewValidation("line references an unknown product").WithCause(err)
		}
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// Delete removes the document; lines cascade.
func (r *DocumentRepo) Delete(ctx context.Context, docID id.ID) error {
	sql, args, err := r.Builder().
		Delete(documentsTable).
		Where(squirrel.Eq{"id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("document", docID.String())
	}
	return nil
}

// List retrieves documents with their lines.
func (r *DocumentRepo) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*documents.Document], error) {
	result := domain.ListResult[*documents.Document]{
		Items:  []*documents.Document{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.applyFilter(r.baseSelect(), filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id DESC")

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
		return result, fmt.Errorf("list documents: %w", err)
	}

	ids := make([]id.ID, 0, len(result.Items))
	for _, doc := range result.Items {
		ids = append(ids, doc.ID)
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return result, err
	}
	for _, doc := range result.Items {
		doc.Lines = lines[doc.ID]
		if doc.Lines == nil {
			doc.Lines = []documents.Line{}
		}
	}

	return result, nil
}

func (r *DocumentRepo) applyFilter(q squirrel.SelectBuilder, filter documents.ListFilter) squirrel.SelectBuilder {
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"warehouse_id": *filter.WarehouseID},
			squirrel.Eq{"from_warehouse_id": *filter.WarehouseID},
			squirrel.Eq{"to_warehouse_id": *filter.WarehouseID},
		})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"partner": pattern},
		})
	}
	return q
}

func (r *DocumentRepo) loadLines(ctx context.Context, docIDs []id.ID) (map[id.ID][]documents.Line, error) {
	out := make(map[id.ID][]documents.Line, len(docIDs))
	if len(docIDs) == 0 {
		return out, nil
	}

	sql, args, err := r.Builder().
		Select(lineColumns...).
		From(linesTable).
		Where(squirrel.Eq{"document_id": docIDs}).
		OrderBy("document_id", "line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var rows []lineRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	for _, row := range rows {
		out[row.DocumentID] = append(out[row.DocumentID], row.Line)
	}
	return out, nil
}

// foreignKeyFields maps the document foreign keys to the request field they
// come from.
var foreignKeyFields = map[string]string{
	"documents_warehouse_id_fkey":      "warehouse_id",
	"documents_from_warehouse_id_fkey": "from_warehouse_id",
	"documents_to_warehouse_id_fkey":   "to_warehouse_id",
}

func mapForeignKeyError(err error) error {
	constraint := postgres.ConstraintName(err)
	if field, ok := foreignKeyFields[constraint]; ok {
		return apperror.NewValidation("document references an unknown warehouse").
			WithDetail("field", field).
			WithCause(err)
	}
	if constraint == "documents_user_id_fkey" {
		return apperror.NewUnauthorized("the acting user no longer exists").WithCause(err)
	}
	return apperror.NewValidation("document references an unknown record").
		WithDetail("constraint", constraint).
		WithCause(err)
}

func (r *DocumentRepo) mapWriteError(err error, doc *documents.Document) error {
	switch {
	case postgres.IsUniqueViolation(err):
		return apperror.NewDuplicate("document", "number", doc.Number).WithCause(err)
	case postgres.IsForeignKeyViolation(err):
		return mapForeignKeyError(err)
	case postgres.IsCheckViolation(err):
		return apperror.NewValidation("document violates a constraint").WithCause(err)
	default:
		return fmt.Errorf("write document: %w", err)
	}
}

func (r *DocumentRepo) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "created_at DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	for _, col := range r.selectCols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid order_by").WithDetail("order_by", orderBy)
}
