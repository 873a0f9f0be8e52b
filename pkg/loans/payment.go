// Package loans provides the fixed-rate loan payment formulas and the
// amortization schedule generators built on them.
package loans

import (
	"math"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
)

// LoanTerms holds the inputs for evaluating a fixed-rate, fixed-term loan.
type LoanTerms struct {
	AnnualRatePercent float64
	TermMonths        int
	Principal         float64
}

// MonthlyRate returns the periodic (monthly) rate as a fraction.
func (t LoanTerms) MonthlyRate() float64 {
	return MonthlyRate(t.AnnualRatePercent)
}

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / constants.MonthlyRateDivisor
}

// Payment returns the level payment that fully amortizes presentValue over
// periods at the periodic rate. The result is negative (cash outflow) for a
// positive presentValue.
func Payment(rate float64, periods int, presentValue float64) float64 {
	if rate == 0 {
		return -presentValue / float64(periods)
	}

	pvif := math.Pow(1+rate, float64(periods))
	return (rate / (pvif - 1)) * -(presentValue * pvif)
}

// InterestPortion returns the interest component of the period-th payment
// (counted from 1) of a loan starting at presentValue. It uses the same
// negative sign convention as Payment.
func InterestPortion(presentValue, payment, rate float64, period int) float64 {
	growth := math.Pow(1+rate, float64(period-1))
	return 0 - (presentValue*growth*rate + payment*(growth-1))
}

// PrincipalPortion returns the principal component of the period-th payment
// of a loan of presentValue amortized over periods. Negative sign convention.
func PrincipalPortion(rate float64, period, periods int, presentValue float64) float64 {
	payment := Payment(rate, periods, presentValue)
	return payment - InterestPortion(presentValue, payment, rate, period)
}
