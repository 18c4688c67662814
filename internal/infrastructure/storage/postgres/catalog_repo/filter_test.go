package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain"
	"stockledger/internal/domain/filter"
)

func newTestRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table", "test", "code", []string{"id", "name", "code", "col1"}, func() any { return nil })
}

func TestApplyAdvancedFilters_Operators(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "Greater",
			item:     filter.Item{Field: "col1", Operator: filter.Greater, Value: 10},
			wantSQL:  "SELECT id, name, code, col1 FROM test_table WHERE col1 > $1",
			wantArgs: []any{10},
		},
		{
			name:     "Less",
			item:     filter.Item{Field: "col1", Operator: filter.Less, Value: 5},
			wantSQL:  "SELECT id, name, code, col1 FROM test_table WHERE col1 < $1",
			wantArgs: []any{5},
		},
		{
			name:     "Contains",
			item:     filter.Item{Field: "col1", Operator: filter.Contains, Value: "bolt"},
			wantSQL:  "SELECT id, name, code, col1 FROM test_table WHERE col1 ILIKE $1",
			wantArgs: []any{"%bolt%"},
		},
		{
			name:     "Equal",
			item:     filter.Eq("col1", "tools"),
			wantSQL:  "SELECT id, name, code, col1 FROM test_table WHERE col1 = $1",
			wantArgs: []any{"tools"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{tt.item})
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestApplyAdvancedFilters_RejectsUnknownColumn(t *testing.T) {
	repo := newTestRepo()
	_, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{filter.Eq("password", "x")})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestFilteredSelect_SearchMatchesNameAndKey(t *testing.T) {
	repo := newTestRepo()
	q, err := repo.filteredSelect(domain.ListFilter{Search: " wid "})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name, code, col1 FROM test_table WHERE (name ILIKE $1 OR code ILIKE $2)", sql)
	assert.Equal(t, []any{"%wid%", "%wid%"}, args)
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", got)

	got, err = repo.parseOrderBy("-code")
	require.NoError(t, err)
	assert.Equal(t, "code DESC", got)

	_, err = repo.parseOrderBy("secret")
	assert.Error(t, err)
}

func TestProductColumns(t *testing.T) {
	repo := NewProductRepo(nil)
	assert.Contains(t, repo.selectCols, "sku")
	assert.Contains(t, repo.selectCols, "reorder_level")
	assert.Contains(t, repo.selectCols, "version")
	assert.Equal(t, "sku", repo.keyColumn)
}
