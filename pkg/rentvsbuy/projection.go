// Package rentvsbuy projects the net worth of buying a property against
// renting and investing the savings instead.
package rentvsbuy

import (
	"math"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
)

// Input holds the figures the projection needs from the affordability and
// annuity results plus the market assumptions.
type Input struct {
	Loan                    float64 `json:"loan"`
	TotalCost               float64 `json:"totalCost"`
	MonthlyNetPayment       float64 `json:"monthlyNetPayment"`
	Price                   float64 `json:"price"`
	MonthlyRent             float64 `json:"monthlyRent"`
	Savings                 float64 `json:"savings"`
	AppreciationRatePercent float64 `json:"appreciationRate"`
	Years                   int     `json:"years"`
}

// YearlyRow is one year of the comparison.
type YearlyRow struct {
	Year                   int     `json:"year"`
	PropertyValue          float64 `json:"propertyValue"`
	RemainingLoanBalance   float64 `json:"remainingLoanBalance"`
	Equity                 float64 `json:"equity"`
	CumulativeRentPaid     float64 `json:"cumulativeRentPaid"`
	CumulativeMortgagePaid float64 `json:"cumulativeMortgagePaid"`
	BuyingNetWorth         float64 `json:"buyingNetWorth"`
	RentingNetWorth        float64 `json:"rentingNetWorth"`
	NetWorthDifference     float64 `json:"netWorthDifference"`
}

// Projection is the full comparison. BreakEvenYear is zero when buying never
// comes out ahead within the horizon.
type Projection struct {
	Rows          []YearlyRow `json:"rows"`
	BreakEvenYear int         `json:"breakEvenYear,omitempty"`
}

// HasBreakEven reports whether buying comes out ahead in some year.
func (p Projection) HasBreakEven() bool {
	return p.BreakEvenYear > 0
}

// Final returns the last projected year.
func (p Projection) Final() (YearlyRow, bool) {
	if len(p.Rows) == 0 {
		return YearlyRow{}, false
	}
	return p.Rows[len(p.Rows)-1], true
}

// Validate rejects malformed projection inputs. The appreciation rate may be
// negative for falling markets.
func (in Input) Validate() error {
	err := validation.First(
		validation.NonNegative("loan", in.Loan),
		validation.NonNegative("totalCost", in.TotalCost),
		validation.Finite("monthlyNetPayment", in.MonthlyNetPayment),
		validation.Positive("price", in.Price),
		validation.NonNegative("rent", in.MonthlyRent),
		validation.NonNegative("savings", in.Savings),
		validation.Finite("propertyAppreciationRate", in.AppreciationRatePercent),
		validation.PositiveInt("comparisonPeriodYears", in.Years),
		validation.IntAtMost("comparisonPeriodYears", in.Years, constants.MaxComparisonYears),
	)
	if err != nil {
		return err
	}
	if in.AppreciationRatePercent <= -constants.PercentageMultiplier {
		return &validation.InvalidInputError{
			Field:  "propertyAppreciationRate",
			Value:  in.AppreciationRatePercent,
			Reason: "must be above -100 percent",
		}
	}
	return nil
}

// Project produces one row per year and the first year in which buying is
// ahead. The remaining loan uses a straight-line payoff over the term rather
// than the exact amortization schedule.
func Project(in Input) (Projection, error) {
	if err := in.Validate(); err != nil {
		return Projection{}, err
	}

	yearlyMortgagePayment := in.MonthlyNetPayment * constants.MonthsPerYear
	yearlyPrincipal := in.Loan / constants.TermYears
	appreciation := mathutil.PercentToDecimal(in.AppreciationRatePercent)

	projection := Projection{Rows: make([]YearlyRow, 0, in.Years)}
	cumulativeRent := 0.0
	for year := 1; year <= in.Years; year++ {
		cumulativeRent += in.MonthlyRent * constants.MonthsPerYear * mathutil.Growth(constants.RentGrowthRate, year-1)

		row := YearlyRow{
			Year:                   year,
			PropertyValue:          in.Price * mathutil.Growth(appreciation, year),
			RemainingLoanBalance:   math.Max(0, in.Loan-yearlyPrincipal*float64(year)),
			CumulativeRentPaid:     cumulativeRent,
			CumulativeMortgagePaid: yearlyMortgagePayment * float64(year),
		}
		row.Equity = row.PropertyValue - row.RemainingLoanBalance
		row.BuyingNetWorth = row.Equity - in.TotalCost
		row.RentingNetWorth = in.Savings*mathutil.Growth(constants.InvestmentReturnRate, year) - cumulativeRent
		row.NetWorthDifference = row.BuyingNetWorth - row.RentingNetWorth

		if projection.BreakEvenYear == 0 && row.NetWorthDifference > 0 {
			projection.BreakEvenYear = year
		}
		projection.Rows = append(projection.Rows, row)
	}

	return projection, nil
}
