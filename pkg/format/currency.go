// Package format renders monetary amounts and percentages for display.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a euro sign and thousands separators (e.g., "-€1,234.56").
func Currency(amount float64) string {
	sign, formatted := split(amount)
	return sign + "€" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	sign, formatted := split(amount)
	return sign + formatted
}

// Percent renders a percentage value with two decimals (e.g., "2.35%").
func Percent(value float64) string {
	return RoundCents(value).StringFixed(2) + "%"
}

// RoundCents rounds a float amount half away from zero to whole cents.
// Rounding happens on the decimal representation so that values such as
// 1.005 round up as a reader would expect.
func RoundCents(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(2)
}

func split(amount float64) (string, string) {
	rounded := RoundCents(amount)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign, groupThousands(rounded.Abs().StringFixed(2))
}

func groupThousands(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
