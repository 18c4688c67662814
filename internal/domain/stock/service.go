package stock

import (
	"context"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Service exposes stock levels for reading.
type Service struct {
	reader Reader
}

// NewService creates a new stock read service.
func NewService(reader Reader) *Service {
	return &Service{reader: reader}
}

// Get returns the quantity of productID in warehouseID.
func (s *Service) Get(ctx context.Context, productID, warehouseID id.ID) (Level, error) {
	key := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
	q, err := s.reader.Get(ctx, key)
	if err != nil {
		return Level{}, err
	}
	return Level{StockKey: key, Quantity: q}, nil
}

// List returns balances with catalog names.
func (s *Service) List(ctx context.Context, filter BalanceFilter) (domain.ListResult[Level], error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 100
	}
	return s.reader.ListBalances(ctx, filter)
}

// Quantities implements documents.StockReader.
func (s *Service) Quantities(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error) {
	return s.reader.Quantities(ctx, keys)
}

// maxProductLevels bounds the per-warehouse breakdown of one product.
const maxProductLevels = 1000

// ProductLevels returns every stock row of productID, optionally narrowed
// to one warehouse, including rows that dropped to zero.
func (s *Service) ProductLevels(ctx context.Context, productID id.ID, warehouseID *id.ID) ([]Level, error) {
	result, err := s.reader.ListBalances(ctx, BalanceFilter{
		ProductID:   &productID,
		WarehouseID: warehouseID,
		IncludeZero: true,
		Limit:       maxProductLevels,
	})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// Totals returns the on-hand quantity of each product summed over all
// warehouses. Products without stock map to 0.
func (s *Service) Totals(ctx context.Context, productIDs []id.ID) (map[id.ID]int64, error) {
	out := make(map[id.ID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	totals, err := s.reader.Totals(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for _, pid := range productIDs {
		out[pid] = totals[pid]
	}
	return out, nil
}
