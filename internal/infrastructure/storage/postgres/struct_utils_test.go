package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
)

type mockProduct struct {
	entity.Catalog
	SKU          string  `db:"sku" json:"sku"`
	ReorderLevel int64   `db:"reorder_level" json:"reorder_level"`
	Category     *string `db:"category" json:"category,omitempty"`
	InitialStock int64   `db:"-" json:"initial_stock"`
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[mockProduct]()

	assert.ElementsMatch(t, []string{
		"id", "created_at", "updated_at", "name", "version", "sku", "reorder_level", "category",
	}, cols)
}

func TestStructToMap_Embedded(t *testing.T) {
	p := mockProduct{
		Catalog:      entity.NewCatalog("Bolt M6"),
		SKU:          "BLT-M6",
		ReorderLevel: 20,
		InitialStock: 5,
	}
	p.Version = 3

	m := StructToMap(&p)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, "Bolt M6", m["name"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, "BLT-M6", m["sku"])
	assert.Equal(t, int64(20), m["reorder_level"])
	assert.NotContains(t, m, "initial_stock")
	assert.False(t, id.IsNil(m["id"].(id.ID)))
}
