package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits stored for every currency amount
const Scale int32 = 2

var (
	// ErrNegativeAmount indicates an amount below zero where only non-negative values are allowed
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrTooManyDecimals indicates an amount with more precision than the ledger stores
	ErrTooManyDecimals = errors.New("amount cannot have more than 2 decimal places")

	// ErrInvalidAmount indicates an amount string that is not a number
	ErrInvalidAmount = errors.New("amount must be a decimal number")
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds an amount to 2 decimal places (half away from zero)
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// ClampZero returns max(0, d)
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// IsPositive reports whether d > 0
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// Percent returns round(part/whole*100, 2). A non-positive whole counts as fully covered.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !IsPositive(whole) {
		return hundred
	}
	return part.Div(whole).Mul(hundred).Round(Scale)
}

// PercentOf returns round(amount*percent/100, 2)
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(Scale)
}

// ApplyPercentDiscount returns the amount reduced by the given percentage, never below zero
func ApplyPercentDiscount(amount, percent decimal.Decimal) decimal.Decimal {
	return ClampZero(Round2(amount.Sub(PercentOf(amount, percent))))
}

// Parse parses a non-negative amount with at most 2 decimal places
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if err := Validate(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Validate checks that an amount is non-negative and fits the ledger precision
func Validate(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegativeAmount
	}
	if !d.Equal(d.Round(Scale)) {
		return ErrTooManyDecimals
	}
	return nil
}

// Sum adds up a list of amounts
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Format renders an amount with its currency code, e.g. "LKR 15000.00"
func Format(d decimal.Decimal, currency string) string {
	if currency == "" {
		return d.StringFixed(Scale)
	}
	return currency + " " + d.StringFixed(Scale)
}
