package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/domain/catalogs/category"
)

func TestCategoryInsertQuery(t *testing.T) {
	repo := NewCategoryRepo(nil)
	c := category.New("tools", nil)

	sql, args, err := repo.insertQuery(c).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO categories (id,name,description,created_at) VALUES ($1,$2,$3,$4)", sql)
	require.Len(t, args, 4)
	assert.Equal(t, c.ID, args[0])
	assert.Equal(t, "tools", args[1])
}
