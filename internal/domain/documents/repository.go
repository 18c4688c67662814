package documents

import (
	"context"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Repository defines persistence of documents and their lines.
type Repository interface {
	Create(ctx context.Context, doc *Document) error

	// GetByID loads the document header and lines.
	GetByID(ctx context.Context, docID id.ID) (*Document, error)

	// GetForUpdate loads the document with its header row locked until the
	// transaction ends.
	GetForUpdate(ctx context.Context, docID id.ID) (*Document, error)

	// UpdateHeader writes header fields other than status.
	UpdateHeader(ctx context.Context, doc *Document) error

	// UpdateStatus sets status and updated_at.
	UpdateStatus(ctx context.Context, docID id.ID, status entity.Status) error

	// SaveLines replaces all lines of the document.
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// Delete removes the document; lines cascade.
	Delete(ctx context.Context, docID id.ID) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error)
}

// ListFilter for filtering documents.
type ListFilter struct {
	domain.ListFilter

	Kind   *Kind
	Status *entity.Status

	// WarehouseID matches warehouse_id, or either side of a transfer
	WarehouseID *id.ID
}

// References checks that referenced catalog rows exist.
type References interface {
	MissingProducts(ctx context.Context, ids []id.ID) ([]id.ID, error)
	MissingWarehouses(ctx context.Context, ids []id.ID) ([]id.ID, error)
}

// StockReader returns current quantities for adjustment snapshots.
type StockReader interface {
	Quantities(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]int64, error)
}
