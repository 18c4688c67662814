package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is an in-memory Generator for unit tests.
// It counts per (prefix, day) like the real one.
type MockGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	day := period.Format("20060102")
	m.counters[cfg.Prefix+day]++
	return fmt.Sprintf("%s-%s-%04d", cfg.Prefix, day, m.counters[cfg.Prefix+day]), nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
