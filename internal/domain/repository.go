// Package domain provides the generic catalog service and repository
// contracts shared by products and warehouses.
package domain

import (
	"context"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/filter"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches name and the natural key (sku or code) with ILIKE
	Search string

	IDs []id.ID

	// AdvancedFilters are column conditions, e.g. category = 'tools'
	AdvancedFilters []filter.Item

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogEntity is implemented by products and warehouses.
type CatalogEntity interface {
	entity.Validatable
	GetID() id.ID
	// NaturalKey returns the unique business key column and value.
	NaturalKey() (field, value string)
}

// CatalogRepository defines CRUD operations for catalog entities.
type CatalogRepository[T CatalogEntity] interface {
	Create(ctx context.Context, entity T) error

	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetByKey retrieves entity by its natural key (sku, code)
	GetByKey(ctx context.Context, key string) (T, error)

	// Update modifies existing entity (with optimistic locking)
	Update(ctx context.Context, entity T) error

	// Delete removes the row. Rows referenced by stock, documents or the
	// ledger are refused with a Conflict.
	Delete(ctx context.Context, id id.ID) error

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	Exists(ctx context.Context, id id.ID) (bool, error)

	ExistsByKey(ctx context.Context, key string) (bool, error)
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	BeforeDelete HookEvent = "before_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeCreate registers a hook to run before create.
func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) {
	r.On(BeforeCreate, hook)
}

// OnAfterCreate registers a hook that runs inside the create transaction.
func (r *HookRegistry[T]) OnAfterCreate(hook Hook[T]) {
	r.On(AfterCreate, hook)
}

// OnBeforeUpdate registers a hook to run before update.
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) {
	r.On(BeforeUpdate, hook)
}

// OnBeforeDelete registers a hook to run before delete.
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) {
	r.On(BeforeDelete, hook)
}
