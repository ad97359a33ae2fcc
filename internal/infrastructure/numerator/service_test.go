package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "smartsupply/internal/core/numerator"
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

// mockQuerier simulates a single sys_sequences row.
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
	err          error
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return &mockRow{err: m.err}
	}

	if strings.Contains(sql, "DO UPDATE SET current_val = $2") {
		m.currentValue = args[1].(int64)
		return &mockRow{val: m.currentValue}
	}

	increment := int64(1)
	if len(args) == 2 {
		if v, ok := args[1].(int64); ok {
			increment = v
		}
	}
	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

var period = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("OUT")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "OUT-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "OUT-2026-00002", num)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("TRF")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "TRF-2026-00001", num)
	assert.Equal(t, int64(10), q.currentValue)

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "TRF-2026-00002", num)
	assert.Equal(t, 1, q.calls, "second number must come from the reserved range")

	for i := 0; i < 8; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "TRF-2026-00011", num)
	assert.Equal(t, int64(20), q.currentValue)
	assert.Equal(t, 2, q.calls)
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("DMG")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period, 100))

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "DMG-2026-00101", num)
}

func TestGetNextNumber_Error(t *testing.T) {
	svc := New(&mockQuerier{err: errors.New("db down")})

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("IN"), nil, period)
	assert.ErrorContains(t, err, "db down")

	var nilSvc *Service
	_, err = nilSvc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("IN"), nil, period)
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		cfg  corenumerator.Config
		num  int64
		want string
	}{
		{"default", corenumerator.DefaultConfig("IN"), 7, "IN-2026-00007"},
		{"no year", corenumerator.Config{Prefix: "LOT", PadWidth: 3}, 42, "LOT-042"},
		{"zero pad defaults to 5", corenumerator.Config{Prefix: "X"}, 1, "X-00001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNumber(tt.cfg, period, tt.num))
		})
	}

	assert.Equal(t, "IN_2026_03", buildKey(corenumerator.Config{Prefix: "IN", ResetPeriod: "month"}, period))
	assert.Equal(t, "IN", buildKey(corenumerator.Config{Prefix: "IN", ResetPeriod: "never"}, period))
}
