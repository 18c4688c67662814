// Package tx decouples domain services from the concrete transaction
// implementation in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// Stock and ledger writes of a document validation all happen inside one
// RunInTransaction call. Nested calls reuse the transaction already
// carried by ctx.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions for reports.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
