// Package rates holds reference mortgage interest rates by fixed-rate period
// and loan-to-value bracket.
package rates

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
)

var (
	// ErrUnknownPeriod is returned when the table has no row for the
	// requested fixed-rate period.
	ErrUnknownPeriod = errors.New("no reference rates for fixed-rate period")

	// ErrLoanToValueTooHigh is returned when the loan exceeds the highest
	// loan-to-value bracket.
	ErrLoanToValueTooHigh = errors.New("loan-to-value ratio above highest bracket")
)

// bracketTolerance absorbs rounding in ratio-to-percent conversion so that a
// ratio of exactly 0.55 lands in the 55% bracket.
const bracketTolerance = 1e-9

// Bracket is the rate for loans up to MaxLoanToValuePercent of the price.
type Bracket struct {
	MaxLoanToValuePercent float64 `json:"maxLoanToValue" yaml:"maxLoanToValue"`
	Rate                  float64 `json:"rate" yaml:"rate"`
}

// Period is one fixed-rate period row.
type Period struct {
	FixedYears    int       `json:"fixedYears" yaml:"fixedYears"`
	GuaranteeRate float64   `json:"guaranteeRate" yaml:"guaranteeRate"`
	Brackets      []Bracket `json:"brackets" yaml:"brackets"`
}

// Table is a set of fixed-rate periods.
type Table []Period

// DefaultTable returns the reference rates shipped with the calculator.
func DefaultTable() Table {
	return Table{
		{
			FixedYears:    10,
			GuaranteeRate: 4.20,
			Brackets: []Bracket{
				{55, 4.45}, {60, 4.47}, {65, 4.57}, {70, 4.58}, {75, 4.59},
				{80, 4.60}, {85, 4.61}, {90, 4.62}, {95, 4.63}, {100, 4.68},
			},
		},
		{
			FixedYears:    20,
			GuaranteeRate: 4.45,
			Brackets: []Bracket{
				{55, 4.66}, {60, 4.69}, {65, 4.76}, {70, 4.77}, {75, 4.78},
				{80, 4.79}, {85, 4.85}, {90, 4.94}, {95, 4.98}, {100, 5.03},
			},
		},
	}
}

// Periods lists the fixed-rate periods available in the table.
func (t Table) Periods() []int {
	periods := make([]int, 0, len(t))
	for _, p := range t {
		periods = append(periods, p.FixedYears)
	}
	sort.Ints(periods)
	return periods
}

// Lookup returns the reference rate in percent for a fixed-rate period and a
// loan-to-value ratio (loan / price). Guarantee-eligible loans get the
// guarantee rate regardless of their loan-to-value ratio.
func Lookup(table Table, fixedYears int, ltvRatio float64, guaranteeEligible bool) (float64, error) {
	period, ok := table.period(fixedYears)
	if !ok {
		return 0, fmt.Errorf("%w: %d years", ErrUnknownPeriod, fixedYears)
	}
	if guaranteeEligible {
		return period.GuaranteeRate, nil
	}
	if math.IsNaN(ltvRatio) || ltvRatio < 0 {
		return 0, fmt.Errorf("invalid loan-to-value ratio %v", ltvRatio)
	}

	ltvPercent := ltvRatio * constants.PercentageMultiplier
	brackets := append([]Bracket(nil), period.Brackets...)
	sort.Slice(brackets, func(i, j int) bool {
		return brackets[i].MaxLoanToValuePercent < brackets[j].MaxLoanToValuePercent
	})
	for _, b := range brackets {
		if ltvPercent <= b.MaxLoanToValuePercent+bracketTolerance {
			return b.Rate, nil
		}
	}
	return 0, fmt.Errorf("%w: %.2f%%", ErrLoanToValueTooHigh, ltvPercent)
}

func (t Table) period(fixedYears int) (Period, bool) {
	for _, p := range t {
		if p.FixedYears == fixedYears {
			return p, true
		}
	}
	return Period{}, false
}
