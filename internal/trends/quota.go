package trends

import (
	"context"
	"sync"
	"time"
)

// QuotaStore tracks per-key monthly request counts for metered trend
// providers. Months are keyed "2006-01" in UTC so the counter resets exactly
// when the provider's billing cycle does.
type QuotaStore interface {
	// Increment adds one to the key's counter for the month and returns the
	// new count.
	Increment(ctx context.Context, key, month string) (int, error)
	// Count returns the key's counter for the month.
	Count(ctx context.Context, key, month string) (int, error)
	// Set overwrites the key's counter for the month. Used to pin a key at
	// its limit when the provider rejects it mid-month.
	Set(ctx context.Context, key, month string, count int) error
}

// MonthKey formats t as a quota month key.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// MemoryQuotaStore is an in-process QuotaStore for tests and single-run
// invocations without a database.
type MemoryQuotaStore struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{counts: make(map[string]int)}
}

func (s *MemoryQuotaStore) Increment(_ context.Context, key, month string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[key+"/"+month]++

	return s.counts[key+"/"+month], nil
}

func (s *MemoryQuotaStore) Count(_ context.Context, key, month string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counts[key+"/"+month], nil
}

func (s *MemoryQuotaStore) Set(_ context.Context, key, month string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[key+"/"+month] = count

	return nil
}
