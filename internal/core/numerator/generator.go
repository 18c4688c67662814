// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
//
// Numbers are allocated inside the caller's transaction: a rollback
// releases the number again, so the sequence has no gaps.
type Generator interface {
	// GetNextNumber generates the next document number for the period,
	// e.g. REC-20260115-0001.
	GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)
}
