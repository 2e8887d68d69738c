package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary amount to 2 decimal places, half away from zero.
// Always applied after summation, never per line item.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundPct rounds a percentage to 2 decimals. math.Round rounds half away
// from zero, matching the monetary rounding rule.
func RoundPct(v float64) float64 {
	return math.Round(v*100) / 100
}
