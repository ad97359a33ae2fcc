// Package types provides value types shared by the catalog and inventory domains.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Extend returns qty × unit rounded to 4 places, matching NUMERIC(15,4) columns.
func Extend(qty int64, unit Money) Money {
	return unit.Mul(decimal.NewFromInt(qty)).Round(4)
}

// Quantity is a count of whole stock units.
//
// JSON accepts numbers or numeric strings; fractional values are rejected so
// that "non-integer" input surfaces as a decode error instead of truncation.
type Quantity int64

// ErrInvalidQuantity wraps every Quantity parse failure.
var ErrInvalidQuantity = errors.New("invalid quantity")

// maxQuantityExponent bounds exponent notation before the value is expanded.
const maxQuantityExponent = 64

func (q Quantity) Int64() int64 { return int64(q) }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) String() string { return strconv.FormatInt(int64(q), 10) }

// MarshalJSON encodes Quantity as a JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string holding an integer.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	s := string(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}

	parsed, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuantity parses a whole-unit quantity. Any decimal notation with an
// integral value is accepted ("5", "+5", "5.0", "1e3"); "5.5" and "1e-1" are not.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidQuantity)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	if exp := d.Exponent(); !d.IsZero() && (exp > maxQuantityExponent || exp < -maxQuantityExponent) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidQuantity, s)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidQuantity, s)
	}

	v := d.BigInt()
	if !v.IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidQuantity, s)
	}
	return Quantity(v.Int64()), nil
}
