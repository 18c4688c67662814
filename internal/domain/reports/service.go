package reports

import (
	"context"
	"fmt"
	"sort"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/stock"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 100
)

// Service provides dashboard operations.
type Service struct {
	repo     Repository
	activity ActivitySource
	rule     *LowStockRule
}

// NewService creates a new reports service.
func NewService(repo Repository, activity ActivitySource, rule *LowStockRule) *Service {
	return &Service{repo: repo, activity: activity, rule: rule}
}

// KPIs returns the dashboard summary, optionally for one warehouse.
func (s *Service) KPIs(ctx context.Context, warehouseID *id.ID) (KPIs, error) {
	counts, err := s.repo.Counts(ctx, warehouseID)
	if err != nil {
		return KPIs{}, fmt.Errorf("get counts: %w", err)
	}

	low, err := s.lowRows(ctx, warehouseID)
	if err != nil {
		return KPIs{}, err
	}

	products := make(map[id.ID]struct{}, len(low))
	for _, row := range low {
		products[row.ProductID] = struct{}{}
	}

	return KPIs{Counts: counts, LowStockItems: int64(len(products))}, nil
}

// LowStock lists stock rows matching the low-stock rule, lowest quantity
// first.
func (s *Service) LowStock(ctx context.Context, warehouseID *id.ID) ([]LowStockItem, error) {
	low, err := s.lowRows(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(low, func(i, j int) bool { return low[i].Quantity < low[j].Quantity })
	return low, nil
}

// RecentActivity returns the latest ledger entries.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]ledger.Entry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	res, err := s.activity.List(ctx, ledger.Filter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return res.Items, nil
}

func (s *Service) lowRows(ctx context.Context, warehouseID *id.ID) ([]stock.Level, error) {
	rows, err := s.repo.StockRows(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("get stock rows: %w", err)
	}

	low := make([]stock.Level, 0)
	for _, row := range rows {
		matched, err := s.rule.Match(row.Quantity, row.ReorderLevel)
		if err != nil {
			return nil, err
		}
		if matched {
			low = append(low, row)
		}
	}
	return low, nil
}
