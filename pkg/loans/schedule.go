package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
	"go.uber.org/zap"
)

// Policy selects how principal is repaid over the term.
type Policy string

const (
	// Annuity repays with a level total payment; the principal share grows.
	Annuity Policy = "annuity"
	// Linear repays a constant principal amount every month.
	Linear Policy = "linear"
)

// Policies lists the supported repayment policies in presentation order.
var Policies = []Policy{Annuity, Linear}

// MonthlyRow holds the values for a given month of a schedule.
type MonthlyRow struct {
	Month         int     `json:"month"`
	Balance       float64 `json:"balance"`
	GrossPayment  float64 `json:"grossPayment"`
	PrincipalPaid float64 `json:"principalPaid"`
	InterestPaid  float64 `json:"interestPaid"`
	TaxDeduction  float64 `json:"taxDeduction"`
	NetPayment    float64 `json:"netPayment"`
}

// Totals aggregates a schedule.
type Totals struct {
	TotalPaidGross     float64 `json:"totalPaidGross"`
	TotalPaidNet       float64 `json:"totalPaidNet"`
	TotalInterestGross float64 `json:"totalInterestGross"`
	TotalInterestNet   float64 `json:"totalInterestNet"`
	TotalInvestedGross float64 `json:"totalInvestedGross"`
	TotalInvestedNet   float64 `json:"totalInvestedNet"`
}

// Schedule is a complete monthly repayment schedule.
type Schedule struct {
	Policy Policy       `json:"policy"`
	Rows   []MonthlyRow `json:"rows"`
	Totals Totals       `json:"totals"`
}

// MonthlyNetPayment returns the average net monthly payment over the term.
func (s Schedule) MonthlyNetPayment() float64 {
	if len(s.Rows) == 0 {
		return 0
	}
	return s.Totals.TotalPaidNet / float64(len(s.Rows))
}

// ScheduleGenerator provides utilities for generating loan amortization schedules
type ScheduleGenerator struct {
	logger *zap.Logger
}

// NewScheduleGenerator creates a new generator instance
func NewScheduleGenerator(logger *zap.Logger) *ScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGenerator{logger: logger}
}

// BuildSchedule builds the fixed-term schedule for a loan under the given
// policy. ratePercent and deductionPercent are percentages; savings only
// feeds the invested totals.
func BuildSchedule(policy Policy, ratePercent, deductionPercent, savings, loan float64) (Schedule, error) {
	terms := LoanTerms{
		AnnualRatePercent: ratePercent,
		TermMonths:        constants.TermMonths,
		Principal:         loan,
	}
	return NewScheduleGenerator(nil).Generate(policy, terms, deductionPercent, savings)
}

// Generate creates a complete schedule. Either every row is produced or an
// error is returned.
func (g *ScheduleGenerator) Generate(policy Policy, terms LoanTerms, deductionPercent, savings float64) (Schedule, error) {
	err := validation.First(
		validation.NonNegative("interestRate", terms.AnnualRatePercent),
		validation.PositiveInt("termMonths", terms.TermMonths),
		validation.NonNegative("loan", terms.Principal),
		validation.Percentage("taxDeduction", deductionPercent),
		validation.NonNegative("savings", savings),
	)
	if err != nil {
		return Schedule{}, err
	}

	var schedule Schedule
	switch policy {
	case Annuity:
		schedule = annuitySchedule(terms, deductionPercent)
	case Linear:
		schedule = linearSchedule(terms, deductionPercent)
	default:
		return Schedule{}, fmt.Errorf("unknown repayment policy %q", policy)
	}

	if err := checkFinite(schedule.Totals, terms); err != nil {
		return Schedule{}, err
	}

	schedule.Totals.TotalInterestGross = schedule.Totals.TotalPaidGross - terms.Principal
	schedule.Totals.TotalInterestNet = schedule.Totals.TotalPaidNet - terms.Principal
	schedule.Totals.TotalInvestedGross = schedule.Totals.TotalPaidGross + savings
	schedule.Totals.TotalInvestedNet = schedule.Totals.TotalPaidNet + savings

	g.logger.Debug(fmt.Sprintf("generated %s schedule of %d months for loan %.2f",
		policy, len(schedule.Rows), terms.Principal),
		zap.String("op", "loans.Generate"),
		zap.Float64("totalPaidGross", schedule.Totals.TotalPaidGross),
		zap.Float64("totalPaidNet", schedule.Totals.TotalPaidNet),
	)

	return schedule, nil
}

// checkFinite rejects schedules whose totals overflowed. A non-finite row
// always surfaces in the totals. The rate is blamed when the compounding
// factor itself overflows, the loan otherwise.
func checkFinite(totals Totals, terms LoanTerms) error {
	if validation.Finite("totalPaidGross", totals.TotalPaidGross) == nil &&
		validation.Finite("totalPaidNet", totals.TotalPaidNet) == nil {
		return nil
	}
	compounding := math.Pow(1+terms.MonthlyRate(), float64(terms.TermMonths))
	if math.IsInf(compounding, 0) {
		return &validation.InvalidInputError{
			Field:  "interestRate",
			Value:  terms.AnnualRatePercent,
			Reason: "is too high to amortize over the term",
		}
	}
	return &validation.InvalidInputError{
		Field:  "loan",
		Value:  terms.Principal,
		Reason: "is too large to amortize over the term",
	}
}

// annuitySchedule re-amortizes the current balance over the remaining term
// every month instead of fixing the payment once.
func annuitySchedule(terms LoanTerms, deductionPercent float64) Schedule {
	rate := terms.MonthlyRate()
	schedule := Schedule{Policy: Annuity, Rows: make([]MonthlyRow, terms.TermMonths)}

	accumulatedPrincipal := 0.0
	for i := 0; i < terms.TermMonths; i++ {
		remaining := terms.TermMonths - i
		balance := math.Max(terms.Principal-accumulatedPrincipal, 0)

		payment := Payment(rate, remaining, balance)
		principal := -PrincipalPortion(rate, 1, remaining, balance)
		interest := -InterestPortion(balance, payment, rate, 1)

		row := newRow(i+1, balance, principal, interest, deductionPercent)
		schedule.Rows[i] = row
		schedule.Totals.TotalPaidGross += row.GrossPayment
		schedule.Totals.TotalPaidNet += row.NetPayment
		accumulatedPrincipal += principal
	}
	return schedule
}

func linearSchedule(terms LoanTerms, deductionPercent float64) Schedule {
	rate := terms.MonthlyRate()
	principal := terms.Principal / float64(terms.TermMonths)
	schedule := Schedule{Policy: Linear, Rows: make([]MonthlyRow, terms.TermMonths)}

	for i := 0; i < terms.TermMonths; i++ {
		balance := terms.Principal - principal*float64(i)
		interest := balance * rate

		row := newRow(i+1, balance, principal, interest, deductionPercent)
		schedule.Rows[i] = row
		schedule.Totals.TotalPaidGross += row.GrossPayment
		schedule.Totals.TotalPaidNet += row.NetPayment
	}
	return schedule
}

func newRow(month int, balance, principal, interest, deductionPercent float64) MonthlyRow {
	gross := principal + interest
	deduction := mathutil.ApplyPercentage(interest, deductionPercent)
	return MonthlyRow{
		Month:         month,
		Balance:       balance,
		GrossPayment:  gross,
		PrincipalPaid: principal,
		InterestPaid:  interest,
		TaxDeduction:  deduction,
		NetPayment:    gross - deduction,
	}
}

// YearSummary aggregates twelve consecutive months of a schedule.
type YearSummary struct {
	Year          int     `json:"year"`
	GrossPayment  float64 `json:"grossPayment"`
	PrincipalPaid float64 `json:"principalPaid"`
	InterestPaid  float64 `json:"interestPaid"`
	TaxDeduction  float64 `json:"taxDeduction"`
	NetPayment    float64 `json:"netPayment"`
	EndBalance    float64 `json:"endBalance"`
}

// YearlySummary folds a schedule into per-year aggregates. A trailing
// partial year is summarised as its own entry.
func YearlySummary(schedule Schedule) []YearSummary {
	years := make([]YearSummary, 0, (len(schedule.Rows)+constants.MonthsPerYear-1)/constants.MonthsPerYear)
	for i, row := range schedule.Rows {
		if i%constants.MonthsPerYear == 0 {
			years = append(years, YearSummary{Year: i/constants.MonthsPerYear + 1})
		}
		year := &years[len(years)-1]
		year.GrossPayment += row.GrossPayment
		year.PrincipalPaid += row.PrincipalPaid
		year.InterestPaid += row.InterestPaid
		year.TaxDeduction += row.TaxDeduction
		year.NetPayment += row.NetPayment
		year.EndBalance = math.Max(row.Balance-row.PrincipalPaid, 0)
		if mathutil.IsZero(year.EndBalance) {
			year.EndBalance = 0
		}
	}
	return years
}
