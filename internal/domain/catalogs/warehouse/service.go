package warehouse

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
)

// Service provides business logic for Warehouse catalog.
type Service struct {
	*domain.CatalogService[*Warehouse]
	repo Repository
}

// NewService creates a new Warehouse service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Warehouse]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "warehouse",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)
	base.Hooks().OnBeforeDelete(svc.checkNotReferenced)

	return svc
}

func (s *Service) prepare(_ context.Context, wh *Warehouse) error {
	wh.normalize()
	return nil
}

// checkNotReferenced refuses deleting a warehouse that holds stock or
// appears on any document.
func (s *Service) checkNotReferenced(ctx context.Context, wh *Warehouse) error {
	used, err := s.repo.IsReferenced(ctx, wh.ID)
	if err != nil {
		return err
	}
	if used {
		return apperror.NewInvalidState("warehouse", wh.ID.String(), "in_use", "delete")
	}
	return nil
}
