// Package catalog_repo provides PostgreSQL implementations for the product
// and warehouse repositories.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/filter"
	"stockledger/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	keyColumn  string
	selectCols []string
	newFn      func() T
}

// NewBaseCatalogRepo creates a new base catalog repository. keyColumn is
// the unique business key (sku, code).
func NewBaseCatalogRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	entityName string,
	keyColumn string,
	selectCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		keyColumn:  keyColumn,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	// Filter to only include columns that exist in DB
	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(filteredData).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, data)
	}

	return nil
}

// Update modifies an existing entity with optimistic locking.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}

	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "version", "created_at", "updated_at":
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return r.mapWriteError(err, data)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, entityID)
	}

	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity, err := r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Limit(1))
	if apperror.IsNotFound(err) {
		return entity, apperror.NewNotFound(r.entityName, entityID.String())
	}
	return entity, err
}

// GetByKey retrieves entity by its business key.
func (r *BaseCatalogRepo[T]) GetByKey(ctx context.Context, key string) (T, error) {
	entity, err := r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{r.keyColumn: key}).Limit(1))
	if apperror.IsNotFound(err) {
		return entity, apperror.NewNotFound(r.entityName, key)
	}
	return entity, err
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q, err := r.filteredSelect(filter)
	if err != nil {
		return result, err
	}

	// Count total (before pagination)
	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id ASC")

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
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}

	return result, nil
}

// filteredSelect applies search, ids and advanced filters.
func (r *BaseCatalogRepo[T]) filteredSelect(filter domain.ListFilter) (squirrel.SelectBuilder, error) {
	q := r.baseSelect()

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{r.keyColumn: pattern},
		})
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	return r.applyAdvancedFilters(q, filter.AdvancedFilters)
}

// applyAdvancedFilters applies column conditions to query.
func (r *BaseCatalogRepo[T]) applyAdvancedFilters(q squirrel.SelectBuilder, filters []filter.Item) (squirrel.SelectBuilder, error) {
	// Whitelist columns for SQL injection protection
	validCols := make(map[string]bool, len(r.selectCols))
	for _, col := range r.selectCols {
		validCols[col] = true
	}

	for _, item := range filters {
		if !validCols[item.Field] {
			return q, apperror.NewValidation("invalid filter column").WithDetail("field", item.Field)
		}

		switch item.Operator {
		case filter.Equal, filter.InList:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual, filter.NotInList:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{item.Field: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{item.Field: item.Value})
		case filter.Less:
			q = q.Where(squirrel.Lt{item.Field: item.Value})
		case filter.Greater:
			q = q.Where(squirrel.Gt{item.Field: item.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{item.Field: nil})
		case filter.Contains:
			q = q.Where(squirrel.ILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		case filter.NotContains:
			q = q.Where(squirrel.NotILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		default:
			return q, apperror.NewValidation("invalid filter operator").WithDetail("operator", string(item.Operator))
		}
	}

	return q, nil
}

// Exists checks if entity exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"id": entityID})
}

// ExistsByKey checks if an entity with the given business key exists.
func (r *BaseCatalogRepo[T]) ExistsByKey(ctx context.Context, key string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{r.keyColumn: key})
}

func (r *BaseCatalogRepo[T]) exists(ctx context.Context, cond squirrel.Sqlizer) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(cond).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists in %s: %w", r.tableName, err)
	}

	return true, nil
}

// MissingIDs returns the ids that have no row in the table.
func (r *BaseCatalogRepo[T]) MissingIDs(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql, args, err := r.Builder().
		Select("id").
		From(r.tableName).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var found []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &found, sql, args...); err != nil {
		return nil, fmt.Errorf("find %s ids: %w", r.tableName, err)
	}

	present := make(map[id.ID]struct{}, len(found))
	for _, f := range found {
		present[f] = struct{}{}
	}

	var missing []id.ID
	for _, candidate := range ids {
		if _, ok := present[candidate]; !ok {
			missing = append(missing, candidate)
		}
	}
	return missing, nil
}

// Delete performs physical removal from the database.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict(r.entityName+" is referenced by stock, documents or the ledger").
				WithDetail("entity", r.entityName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}

	return nil
}

// FindOne executes a SELECT query and returns a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, "matching query")
		}
		return entity, fmt.Errorf("find %s: %w", r.tableName, err)
	}

	return entity, nil
}

// reference names a column of another table that points at a catalog row.
type reference struct {
	table  string
	column string
}

// referencedBy reports whether any of refs has a row equal to entityID.
func (r *BaseCatalogRepo[T]) referencedBy(ctx context.Context, entityID id.ID, refs []reference) (bool, error) {
	if len(refs) == 0 {
		return false, nil
	}

	clauses := make([]string, 0, len(refs))
	for _, ref := range refs {
		clauses = append(clauses, fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s = $1)", ref.table, ref.column))
	}

	var referenced bool
	sql := "SELECT " + strings.Join(clauses, " OR ")
	if err := r.querier(ctx).QueryRow(ctx, sql, entityID).Scan(&referenced); err != nil {
		return false, fmt.Errorf("check %s references: %w", r.tableName, err)
	}
	return referenced, nil
}

func (r *BaseCatalogRepo[T]) mapWriteError(err error, data map[string]any) error {
	switch {
	case postgres.IsUniqueViolation(err):
		return apperror.NewDuplicate(r.entityName, r.keyColumn, fmt.Sprint(data[r.keyColumn])).WithCause(err)
	case postgres.IsCheckViolation(err):
		return apperror.NewValidation(r.entityName + " violates a constraint").WithCause(err)
	default:
		return fmt.Errorf("write %s: %w", r.tableName, err)
	}
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(r.selectCols))
	for _, col := range r.selectCols {
		allowed[col] = struct{}{}
	}

	if orderBy == "" {
		return "name ASC", nil
	}

	// Support "-field" for DESC.
	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok || field == "" {
		return "", apperror.NewValidation("invalid order_by").WithDetail("order_by", orderBy)
	}

	return field + " " + direction, nil
}
