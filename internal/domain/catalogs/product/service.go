package product

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
)

// StockReceiver books an opening quantity through a validated receipt.
type StockReceiver interface {
	ReceiveInitialStock(ctx context.Context, productID, warehouseID id.ID, quantity int64) error
}

// Service provides business logic for Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	txManager tx.Manager
	receiver  StockReceiver
}

// NewService creates a new Product service. receiver may be nil, in which
// case initial stock is rejected.
func NewService(repo Repository, txManager tx.Manager, receiver StockReceiver) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		txManager:      txManager,
		receiver:       receiver,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)
	base.Hooks().OnBeforeDelete(svc.checkNotReferenced)

	return svc
}

func (s *Service) prepare(_ context.Context, p *Product) error {
	p.Normalize()
	return nil
}

func (s *Service) checkNotReferenced(ctx context.Context, p *Product) error {
	used, err := s.repo.IsReferenced(ctx, p.ID)
	if err != nil {
		return err
	}
	if used {
		return apperror.NewInvalidState("product", p.ID.String(), "in_use", "delete")
	}
	return nil
}

// CreateWithStock creates the product and, when stock is given, receives
// the opening quantity in the same transaction. The opening quantity goes
// through the ledger like any other receipt.
func (s *Service) CreateWithStock(ctx context.Context, p *Product, stock *InitialStock) error {
	if stock == nil || stock.Quantity == 0 {
		return s.Create(ctx, p)
	}

	if stock.Quantity < 0 {
		return apperror.NewValidation("initial stock cannot be negative").
			WithDetail("field", "initial_stock")
	}
	if id.IsNil(stock.WarehouseID) {
		return apperror.NewValidation("warehouse is required for initial stock").
			WithDetail("field", "warehouse_id")
	}
	if s.receiver == nil {
		return apperror.NewInternal(nil).WithDetail("missing", "stock_receiver")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Create(ctx, p); err != nil {
			return err
		}
		return s.receiver.ReceiveInitialStock(ctx, p.ID, stock.WarehouseID, stock.Quantity)
	})
}
