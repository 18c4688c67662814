package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "stockledger/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier keeps one counter per key, like the sys_sequences table.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := args[0].(string)
	m.counters[key]++
	return &mockRow{val: m.counters[key]}
}

var day = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("REC")

	num, err := svc.GetNextNumber(ctx, cfg, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "REC-20260115-0001" {
		t.Errorf("expected REC-20260115-0001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "REC-20260115-0002" {
		t.Errorf("expected REC-20260115-0002, got %s", num)
	}
}

func TestGetNextNumber_ResetsPerDayAndPrefix(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	_, _ = svc.GetNextNumber(ctx, corenumerator.DefaultConfig("DEL"), day)
	_, _ = svc.GetNextNumber(ctx, corenumerator.DefaultConfig("DEL"), day)

	next, _ := svc.GetNextNumber(ctx, corenumerator.DefaultConfig("DEL"), day.AddDate(0, 0, 1))
	if next != "DEL-20260116-0001" {
		t.Errorf("expected DEL-20260116-0001, got %s", next)
	}

	other, _ := svc.GetNextNumber(ctx, corenumerator.DefaultConfig("TRF"), day)
	if other != "TRF-20260115-0001" {
		t.Errorf("expected TRF-20260115-0001, got %s", other)
	}
}

func TestGetNextNumber_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("ADJ")

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.GetNextNumber(ctx, cfg, day)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, n)
	for num := range results {
		if seen[num] {
			t.Errorf("duplicate number %s", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d numbers, got %d", n, len(seen))
	}
}

func TestGetNextNumber_PropagatesQueryError(t *testing.T) {
	svc := New(&failingQuerier{})
	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("REC"), day)
	if err == nil {
		t.Fatal("expected error")
	}
}

type failingQuerier struct{}

func (failingQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &mockRow{err: errors.New("connection reset")}
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		period corenumerator.ResetPeriod
		want   string
	}{
		{corenumerator.ResetDaily, "REC_20260115"},
		{corenumerator.ResetMonthly, "REC_202601"},
		{corenumerator.ResetYearly, "REC_2026"},
		{corenumerator.ResetNever, "REC"},
	}
	for _, tt := range tests {
		cfg := corenumerator.Config{Prefix: "REC", ResetPeriod: tt.period}
		if got := BuildKey(cfg, day); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.period, tt.want, got)
		}
	}
}
