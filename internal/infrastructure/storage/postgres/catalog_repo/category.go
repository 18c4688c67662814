package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/catalogs/category"
	"stockledger/internal/infrastructure/storage/postgres"
)

const categoryTable = "categories"

// categoryListSQL lists registered categories plus the names products use
// without a registration, each with its product count.
const categoryListSQL = `
	SELECT c.id, c.name, c.description, c.created_at, COUNT(p.id) AS product_count
	FROM (
		SELECT id, name, description, created_at FROM categories
		UNION ALL
		SELECT DISTINCT NULL::uuid, pr.category, NULL::text, NULL::timestamptz
		FROM products pr
		WHERE pr.category IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM categories rc WHERE rc.name = pr.category)
	) c
	LEFT JOIN products p ON p.category = c.name
	GROUP BY c.id, c.name, c.description, c.created_at
	ORDER BY c.name`

// CategoryRepo implements category.Repository.
type CategoryRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ category.Repository = (*CategoryRepo)(nil)

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txManager *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CategoryRepo) insertQuery(c *category.Category) squirrel.InsertBuilder {
	return r.builder.Insert(categoryTable).
		Columns("id", "name", "description", "created_at").
		Values(c.ID, c.Name, c.Description, c.CreatedAt)
}

// Create implements category.Repository.
func (r *CategoryRepo) Create(ctx context.Context, c *category.Category) error {
	sql, args, err := r.insertQuery(c).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("category", "name", c.Name).WithCause(err)
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// List implements category.Repository.
func (r *CategoryRepo) List(ctx context.Context) ([]category.Category, error) {
	items := []category.Category{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, categoryListSQL); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return items, nil
}
