// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors; binary floating
// point is never acceptable for currency amounts.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred constructor for monetary values.
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

// NewMoneyFromFloat creates a Money value from a float.
// WARNING: use NewMoneyFromString for exact values; this exists for
// boundaries (JSON numbers) where the input is already a float.
func NewMoneyFromFloat(f float64) Money {
	return decimal.NewFromFloat(f)
}

// Zero returns the zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundCurrency rounds an amount to the currency's minor unit (2 decimals).
func RoundCurrency(m Money) Money {
	return m.Round(2)
}

// ValidTaxRate reports whether rate is a percentage within [0, 100].
func ValidTaxRate(rate Money) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(100))
}
