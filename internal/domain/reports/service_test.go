package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/stock"
)

type stubRepo struct {
	counts Counts
	rows   []stock.Level
	gotWH  *id.ID
}

func (r *stubRepo) Counts(_ context.Context, warehouseID *id.ID) (Counts, error) {
	r.gotWH = warehouseID
	return r.counts, nil
}

func (r *stubRepo) StockRows(_ context.Context, warehouseID *id.ID) ([]stock.Level, error) {
	var out []stock.Level
	for _, row := range r.rows {
		if warehouseID == nil || row.WarehouseID == *warehouseID {
			out = append(out, row)
		}
	}
	return out, nil
}

type stubActivity struct{ filter ledger.Filter }

func (a *stubActivity) List(_ context.Context, f ledger.Filter) (domain.ListResult[ledger.Entry], error) {
	a.filter = f
	return domain.ListResult[ledger.Entry]{Items: []ledger.Entry{{Notes: "Receipt validated"}}}, nil
}

func level(p, w id.ID, qty, reorder int64) stock.Level {
	return stock.Level{
		StockKey:     entity.StockKey{ProductID: p, WarehouseID: w},
		Quantity:     qty,
		ReorderLevel: reorder,
	}
}

func TestCompileLowStockRule(t *testing.T) {
	rule, err := CompileLowStockRule("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLowStockRule, rule.String())

	low, err := rule.Match(5, 5)
	require.NoError(t, err)
	assert.True(t, low)

	low, err = rule.Match(6, 5)
	require.NoError(t, err)
	assert.False(t, low)

	_, err = CompileLowStockRule("quantity + 1")
	assert.Error(t, err)

	_, err = CompileLowStockRule("stock < 3")
	assert.Error(t, err)
}

func TestCustomLowStockRule(t *testing.T) {
	rule, err := CompileLowStockRule("quantity < reorder_level * 2 && quantity > 0")
	require.NoError(t, err)

	low, err := rule.Match(9, 5)
	require.NoError(t, err)
	assert.True(t, low)

	low, err = rule.Match(0, 5)
	require.NoError(t, err)
	assert.False(t, low)
}

func TestKPIsCountDistinctLowStockProducts(t *testing.T) {
	p1, p2 := id.New(), id.New()
	w1, w2 := id.New(), id.New()
	repo := &stubRepo{
		counts: Counts{TotalProducts: 2, OutOfStockItems: 1, PendingReceipts: 3},
		rows: []stock.Level{
			level(p1, w1, 2, 10),
			level(p1, w2, 1, 10),
			level(p2, w1, 50, 10),
		},
	}
	rule, err := CompileLowStockRule(DefaultLowStockRule)
	require.NoError(t, err)
	svc := NewService(repo, &stubActivity{}, rule)

	kpis, err := svc.KPIs(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), kpis.LowStockItems)
	assert.Equal(t, int64(2), kpis.TotalProducts)
	assert.Equal(t, int64(3), kpis.PendingReceipts)

	kpis, err = svc.KPIs(context.Background(), &w2)
	require.NoError(t, err)
	assert.Equal(t, &w2, repo.gotWH)
	assert.Equal(t, int64(1), kpis.LowStockItems)
}

func TestLowStockOrderedByQuantity(t *testing.T) {
	w := id.New()
	a, b, c := id.New(), id.New(), id.New()
	repo := &stubRepo{rows: []stock.Level{
		level(a, w, 4, 5),
		level(b, w, 0, 5),
		level(c, w, 9, 5),
	}}
	rule, err := CompileLowStockRule("")
	require.NoError(t, err)

	items, err := NewService(repo, &stubActivity{}, rule).LowStock(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b, items[0].ProductID)
	assert.Equal(t, a, items[1].ProductID)
}

func TestRecentActivityLimit(t *testing.T) {
	activity := &stubActivity{}
	rule, err := CompileLowStockRule("")
	require.NoError(t, err)
	svc := NewService(&stubRepo{}, activity, rule)

	items, err := svc.RecentActivity(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 10, activity.filter.Limit)

	_, err = svc.RecentActivity(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, 100, activity.filter.Limit)
}
