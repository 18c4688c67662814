package ledger

import (
	"context"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/documents"
)

// Repository persists ledger entries. There is no update or delete.
type Repository interface {
	// Append inserts entries in one batch. Requires a transaction in ctx.
	Append(ctx context.Context, entries []Entry) error

	List(ctx context.Context, filter Filter) (domain.ListResult[Entry], error)

	// Sum returns the total quantity change of one stock row.
	Sum(ctx context.Context, key entity.StockKey) (int64, error)
}

// DocumentStore is the part of the document repository the engine needs.
type DocumentStore interface {
	GetForUpdate(ctx context.Context, docID id.ID) (*documents.Document, error)
	UpdateStatus(ctx context.Context, docID id.ID, status entity.Status) error
}
