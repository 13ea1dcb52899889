package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance used when comparing share quantities and weights.
const Epsilon = 1e-9

// IsZero reports whether x is zero within Epsilon.
func IsZero(x float64) bool {
	return x < Epsilon && x > -Epsilon
}

// Equal reports whether a and b are equal within Epsilon.
func Equal(a, b float64) bool {
	return IsZero(a - b)
}

// TruncateQuotient divides num by den and truncates the result toward zero at
// two decimal places.
func TruncateQuotient(num, den decimal.Decimal) (decimal.Decimal, error) {
	if den.IsZero() {
		return decimal.Zero, errors.New("division by zero")
	}
	q, _ := num.QuoRem(den, 2)
	return q, nil
}

// Truncate2 truncates x toward zero at two decimal places.
func Truncate2(x float64) float64 {
	return decimal.NewFromFloat(x).Truncate(2).InexactFloat64()
}

// Fixed2 formats x with exactly two decimals, rounding half away from zero.
func Fixed2(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}

// Percent returns amount * pct / 100 computed in decimal.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100))
}
