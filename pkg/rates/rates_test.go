package rates

import (
	"errors"
	"reflect"
	"testing"
)

func TestLookup(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name      string
		years     int
		ltv       float64
		guarantee bool
		expected  float64
	}{
		{"guarantee 10 years", 10, 0.99, true, 4.20},
		{"guarantee 20 years", 20, 0.5, true, 4.45},
		{"low ltv", 10, 0.30, false, 4.45},
		{"bracket boundary inclusive", 10, 0.55, false, 4.45},
		{"just above boundary", 10, 0.5501, false, 4.47},
		{"eighty percent", 20, 0.80, false, 4.79},
		{"full financing", 10, 1.0, false, 4.68},
		{"full financing 20 years", 20, 1.0, false, 5.03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := Lookup(table, tt.years, tt.ltv, tt.guarantee)
			if err != nil {
				t.Fatalf("Lookup returned error: %v", err)
			}
			if rate != tt.expected {
				t.Errorf("expected %.2f, got %.2f", tt.expected, rate)
			}
		})
	}
}

func TestLookupErrors(t *testing.T) {
	table := DefaultTable()

	if _, err := Lookup(table, 15, 0.5, false); !errors.Is(err, ErrUnknownPeriod) {
		t.Errorf("expected ErrUnknownPeriod, got %v", err)
	}
	if _, err := Lookup(table, 10, 1.05, false); !errors.Is(err, ErrLoanToValueTooHigh) {
		t.Errorf("expected ErrLoanToValueTooHigh, got %v", err)
	}
	if _, err := Lookup(table, 10, -0.1, false); err == nil {
		t.Error("expected error for negative loan-to-value ratio")
	}
}

func TestLookupUnsortedBrackets(t *testing.T) {
	table := Table{{
		FixedYears: 5,
		Brackets:   []Bracket{{100, 5.0}, {50, 3.0}, {80, 4.0}},
	}}

	rate, err := Lookup(table, 5, 0.6, false)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if rate != 4.0 {
		t.Errorf("expected 4.0, got %.2f", rate)
	}
	if table[0].Brackets[0].MaxLoanToValuePercent != 100 {
		t.Error("Lookup must not reorder the caller's table")
	}
}

func TestPeriods(t *testing.T) {
	if got := DefaultTable().Periods(); !reflect.DeepEqual(got, []int{10, 20}) {
		t.Errorf("expected [10 20], got %v", got)
	}
}
