package format

import "testing"

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{0, "€0.00"},
		{12.3, "€12.30"},
		{1234.56, "€1,234.56"},
		{286529.1750503018, "€286,529.18"},
		{1000000, "€1,000,000.00"},
		{-1234.5, "-€1,234.50"},
		{1.005, "€1.01"},
		{-0.001, "€0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestNumericCurrency(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{999.999, "1,000.00"},
		{-61598.5128976, "-61,598.51"},
		{100, "100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := NumericCurrency(tt.amount); got != tt.expected {
				t.Errorf("NumericCurrency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(92.4283); got != "92.43%" {
		t.Errorf("Percent = %q, expected 92.43%%", got)
	}
	if got := Percent(0); got != "0.00%" {
		t.Errorf("Percent = %q, expected 0.00%%", got)
	}
}
