// Package core holds the domain model and the derived-state computations.
//
// Money is carried as integer cents everywhere; decimal input from clients
// is converted once at the boundary and never handled as floating point in
// calculations.
package core

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// DecimalToCents converts a client-supplied decimal amount to cents,
// rounding half-up on the third decimal place. Amounts whose cent value
// does not fit in int64 are rejected; IntPart would silently wrap them.
//
//	DecimalToCents(decimal.RequireFromString("12.34"))  -> 1234
//	DecimalToCents(decimal.RequireFromString("12.345")) -> 1235
func DecimalToCents(d decimal.Decimal) (int64, error) {
	cents := d.Mul(hundred).Round(0)
	if cents.Abs().Cmp(maxCents) > 0 {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// PositiveCents converts d to cents and rejects zero or negative results.
func PositiveCents(d decimal.Decimal) (int64, error) {
	cents, err := DecimalToCents(d)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// NonNegativeCents converts d to cents allowing zero (budgets and
// liabilities may legitimately be 0).
func NonNegativeCents(d decimal.Decimal) (int64, error) {
	cents, err := DecimalToCents(d)
	if err != nil {
		return 0, err
	}
	if cents < 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// CentsToAmount is the response-side counterpart of DecimalToCents.
func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100.0
}
