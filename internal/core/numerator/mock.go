package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is an in-memory Generator for unit tests.
// Without GetNextNumberFunc it counts per prefix: OUT-2026-00001, OUT-2026-00002, ...
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	mu       sync.Mutex
	counters map[string]int64
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg, opts, period)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[cfg.Prefix]++
	return fmt.Sprintf("%s-%s-%05d", cfg.Prefix, period.Format("2006"), m.counters[cfg.Prefix]), nil
}

// SetNextNumber implements Generator.
func (m *MockGenerator) SetNextNumber(_ context.Context, cfg Config, _ time.Time, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[cfg.Prefix] = value
	return nil
}

var _ Generator = (*MockGenerator)(nil)
