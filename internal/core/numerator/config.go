// Package numerator provides domain contracts for document auto-numbering.
package numerator

// ResetPeriod defines when the counter starts again from 1.
type ResetPeriod string

const (
	ResetDaily   ResetPeriod = "day"
	ResetMonthly ResetPeriod = "month"
	ResetYearly  ResetPeriod = "year"
	ResetNever   ResetPeriod = "never"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "REC", "DEL")
	Prefix string

	// IncludeDate adds the reset period stamp to the number
	// (YYYYMMDD for daily reset).
	IncludeDate bool

	// PadWidth is the minimum sequence width (default 4)
	PadWidth int

	ResetPeriod ResetPeriod
}

// DefaultConfig returns the document numbering scheme
// PREFIX-YYYYMMDD-NNNN with a per-day counter.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeDate: true,
		PadWidth:    4,
		ResetPeriod: ResetDaily,
	}
}
