// Package numerator defines how movement reference numbers are generated.
// The Postgres-backed implementation lives in infrastructure/numerator.
package numerator

import (
	"context"
	"time"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict issues every number with an UPSERT ... RETURNING.
	// Sequential, no gaps.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges of numbers in memory.
	// Gaps appear after a restart; uniqueness is preserved.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once by StrategyCached (default 50).
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "IN", "TRF")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns PREFIX-YEAR-NNNNN numbering reset every year.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// Generator issues sequential reference numbers.
type Generator interface {
	// GetNextNumber generates the next number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., OUT-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber overrides the sequence value (data migration, tests).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
