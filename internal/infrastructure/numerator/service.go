// Package numerator provides the PostgreSQL implementation of document
// auto-numbering on top of the sys_sequences counter table.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "stockledger/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierSource returns the querier for ctx, typically the transaction
// carried by it.
type QuerierSource func(ctx context.Context) Querier

// Service provides document numbering functionality using PostgreSQL.
//
// Each counter row is keyed by prefix and period. GetNextNumber
// increments it with a single upsert, so two concurrent creates can never
// receive the same number: the second one blocks on the row lock held by
// the first until its transaction ends.
type Service struct {
	source QuerierSource
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service bound to a fixed querier.
func New(querier Querier) *Service {
	return NewWithSource(func(context.Context) Querier { return querier })
}

// NewWithSource creates a numerator service that resolves the querier per
// call, so numbers are allocated inside the caller's transaction.
func NewWithSource(source QuerierSource) *Service {
	return &Service{source: source}
}

// GetNextNumber generates the next document number.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	key := BuildKey(cfg, period)

	var num int64
	err := s.source(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number %s: %w", key, err)
	}

	return FormatNumber(cfg, period, num), nil
}

// BuildKey creates the sys_sequences key for the config and period.
func BuildKey(cfg corenumerator.Config, period time.Time) string {
	if stamp := periodStamp(cfg.ResetPeriod, period); stamp != "" {
		return cfg.Prefix + "_" + stamp
	}
	return cfg.Prefix
}

// FormatNumber creates the final number string.
func FormatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 4
	}

	if stamp := periodStamp(cfg.ResetPeriod, period); cfg.IncludeDate && stamp != "" {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, stamp, padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

func periodStamp(p corenumerator.ResetPeriod, period time.Time) string {
	switch p {
	case corenumerator.ResetDaily:
		return period.Format("20060102")
	case corenumerator.ResetMonthly:
		return period.Format("200601")
	case corenumerator.ResetYearly:
		return period.Format("2006")
	default:
		return ""
	}
}
