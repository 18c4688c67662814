package entity

import (
	"bytes"
	"sort"

	"stockledger/internal/core/id"
)

// MovementType is the direction of a ledger entry.
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// MovementTypeOf returns in for positive changes and out otherwise.
func MovementTypeOf(change int64) MovementType {
	if change > 0 {
		return MovementIn
	}
	return MovementOut
}

// StockKey identifies one row of the stock table.
type StockKey struct {
	ProductID   id.ID `db:"product_id" json:"product_id"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouse_id"`
}

// Less orders keys by product then warehouse.
func (k StockKey) Less(o StockKey) bool {
	if c := bytes.Compare(k.ProductID[:], o.ProductID[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(k.WarehouseID[:], o.WarehouseID[:]) < 0
}

// SortedKeys returns the distinct keys in lock order.
// Every writer locks stock rows in this order so two validations touching
// the same pairs cannot deadlock.
func SortedKeys(keys []StockKey) []StockKey {
	seen := make(map[StockKey]struct{}, len(keys))
	out := make([]StockKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// StockDelta is a signed quantity change for one stock row.
type StockDelta struct {
	StockKey
	Change int64
	Notes  string
}
