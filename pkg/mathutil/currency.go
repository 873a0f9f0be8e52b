// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons and presentation, never inside the
// schedule formulas.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// WithinRelativeTolerance checks if two values agree to a relative tolerance
// of the larger magnitude. Two zeros always agree.
func WithinRelativeTolerance(val1, val2, tolerance float64) bool {
	scale := math.Max(math.Abs(val1), math.Abs(val2))
	if scale == 0 {
		return true
	}
	return math.Abs(val1-val2)/scale <= tolerance
}

// ApplyPercentage applies a percentage to a value, multiplying before dividing.
func ApplyPercentage(value, percentage float64) float64 {
	return value * percentage / constants.PercentageMultiplier
}

// PercentToDecimal converts a percentage such as 2.5 into 0.025.
func PercentToDecimal(percent float64) float64 {
	return percent / constants.PercentageMultiplier
}

// Growth returns the compound growth factor (1+rate)^periods.
func Growth(rate float64, periods int) float64 {
	return math.Pow(1+rate, float64(periods))
}
