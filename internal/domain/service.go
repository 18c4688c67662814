package domain

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// CatalogService provides business logic for catalog entities.
type CatalogService[T CatalogEntity] struct {
	repo      CatalogRepository[T]
	txManager tx.Manager
	hooks     *HookRegistry[T]

	// entityName for error messages
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T CatalogEntity] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T CatalogEntity](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, idOrKey any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrKey)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrKey)
}

// Create runs before-create hooks, validates the entity, checks its natural
// key is free and inserts it.
// After-create hooks run in the same transaction, so a failing hook
// (e.g. the initial stock receipt) rolls the insert back.
func (s *CatalogService[T]) Create(ctx context.Context, entity T) error {
	if err := s.hooks.Run(ctx, BeforeCreate, entity); err != nil {
		return err
	}

	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		field, value := entity.NaturalKey()
		exists, err := s.repo.ExistsByKey(ctx, value)
		if err != nil {
			return fmt.Errorf("check %s %s: %w", s.entityName, field, err)
		}
		if exists {
			return apperror.NewDuplicate(s.entityName, field, value)
		}

		if err := s.repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}

		if err := s.hooks.Run(ctx, AfterCreate, entity); err != nil {
			return err
		}

		logger.Info(ctx, "catalog item created",
			"entity", s.entityName, "id", entity.GetID().String(), field, value)
		return nil
	})
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	entity, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return entity, s.normalizeGetErr(err, entityID.String())
	}
	return entity, nil
}

// GetByKey retrieves entity by its natural key.
func (s *CatalogService[T]) GetByKey(ctx context.Context, key string) (T, error) {
	entity, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return entity, s.normalizeGetErr(err, key)
	}
	return entity, nil
}

// Update updates an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, entity T) error {
	if err := s.hooks.Run(ctx, BeforeUpdate, entity); err != nil {
		return err
	}

	if err := entity.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, entity); err != nil {
			if apperror.IsAppError(err) {
				return err
			}
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
}

// Delete removes the entity. Before-delete hooks may refuse it.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entity, err := s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}

		if err := s.hooks.Run(ctx, BeforeDelete, entity); err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, entityID); err != nil {
			if apperror.IsAppError(err) {
				return err
			}
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}

		logger.Info(ctx, "catalog item deleted", "entity", s.entityName, "id", entityID.String())
		return nil
	})
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}
