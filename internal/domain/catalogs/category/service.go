package category

import (
	"context"

	"stockledger/pkg/logger"
)

// Service manages the category list.
type Service struct {
	repo Repository
}

// NewService creates a category service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a category.
func (s *Service) Create(ctx context.Context, name string, description *string) (*Category, error) {
	c := New(name, description)
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info(ctx, "category created", "name", c.Name)
	return c, nil
}

// List returns every category, registered or in use.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}
