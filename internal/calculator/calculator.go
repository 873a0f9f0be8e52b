// Package calculator ties the affordability, amortization and rent vs buy
// computations together for a single purchase scenario.
package calculator

import (
	"fmt"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/config"
	"github.com/iwvelando/mortgage-calculator/pkg/affordability"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"github.com/iwvelando/mortgage-calculator/pkg/rates"
	"github.com/iwvelando/mortgage-calculator/pkg/rentvsbuy"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
	"go.uber.org/zap"
)

// Rate sources recorded on a Calculation.
const (
	RateSourceInput     = "input"
	RateSourceReference = "reference"
)

// Inputs is the full set of user-facing inputs for one calculation.
// Percentages are expressed as percent (2.0 means 2%).
type Inputs struct {
	Price                    float64 `json:"price" yaml:"price"`
	InterestRate             float64 `json:"interestRate" yaml:"interestRate"`
	FixedRatePeriod          int     `json:"fixedRatePeriod,omitempty" yaml:"fixedRatePeriod,omitempty"`
	TaxDeduction             float64 `json:"taxDeduction" yaml:"taxDeduction"`
	Savings                  float64 `json:"savings" yaml:"savings"`
	Rent                     float64 `json:"rent" yaml:"rent"`
	Notary                   float64 `json:"notary" yaml:"notary"`
	Valuation                float64 `json:"valuation" yaml:"valuation"`
	FinancialAdvisor         float64 `json:"financialAdvisor" yaml:"financialAdvisor"`
	RealEstateAgent          float64 `json:"realEstateAgent" yaml:"realEstateAgent"`
	StructuralSurvey         float64 `json:"structuralSurvey" yaml:"structuralSurvey"`
	IsFirstTimeBuyer         bool    `json:"isFirstTimeBuyer" yaml:"isFirstTimeBuyer"`
	TransferTaxRate          float64 `json:"transferTaxRate" yaml:"transferTaxRate"`
	PropertyAppreciationRate float64 `json:"propertyAppreciationRate" yaml:"propertyAppreciationRate"`
	ComparisonPeriodYears    int     `json:"comparisonPeriodYears" yaml:"comparisonPeriodYears"`
}

// DefaultInputs returns the inputs a fresh calculator starts with.
func DefaultInputs() Inputs {
	costs := config.DefaultCosts()
	return Inputs{
		Price:                    310000,
		InterestRate:             4.62,
		TaxDeduction:             36.93,
		Savings:                  40000,
		Rent:                     1600,
		Notary:                   costs.Notary,
		Valuation:                costs.Valuation,
		FinancialAdvisor:         costs.FinancialAdvisor,
		RealEstateAgent:          costs.RealEstateAgent,
		StructuralSurvey:         costs.StructuralSurvey,
		TransferTaxRate:          constants.DefaultTransferTaxRate,
		PropertyAppreciationRate: constants.DefaultAppreciationRate,
		ComparisonPeriodYears:    constants.DefaultComparisonYears,
	}
}

// FromScenario resolves a configured scenario against the common settings.
func FromScenario(common config.Common, scenario config.Scenario) Inputs {
	costs := scenario.ResolvedCosts(common)
	return Inputs{
		Price:                    scenario.Price,
		InterestRate:             scenario.InterestRate,
		FixedRatePeriod:          scenario.FixedRatePeriod,
		TaxDeduction:             scenario.TaxDeduction,
		Savings:                  scenario.Savings,
		Rent:                     scenario.Rent,
		Notary:                   costs.Notary,
		Valuation:                costs.Valuation,
		FinancialAdvisor:         costs.FinancialAdvisor,
		RealEstateAgent:          costs.RealEstateAgent,
		StructuralSurvey:         costs.StructuralSurvey,
		IsFirstTimeBuyer:         scenario.IsFirstTimeBuyer,
		TransferTaxRate:          scenario.ResolvedTransferTaxRate(common),
		PropertyAppreciationRate: scenario.ResolvedAppreciationRate(common),
		ComparisonPeriodYears:    scenario.ResolvedComparisonYears(common),
	}
}

// Validate checks every input field and reports the first offending one.
func (in Inputs) Validate() error {
	err := validation.First(
		validation.Positive("price", in.Price),
		validation.NonNegative("interestRate", in.InterestRate),
		validation.Percentage("taxDeduction", in.TaxDeduction),
		validation.NonNegative("savings", in.Savings),
		validation.NonNegative("rent", in.Rent),
		validation.NonNegative("notary", in.Notary),
		validation.NonNegative("valuation", in.Valuation),
		validation.NonNegative("financialAdvisor", in.FinancialAdvisor),
		validation.NonNegative("realEstateAgent", in.RealEstateAgent),
		validation.NonNegative("structuralSurvey", in.StructuralSurvey),
		validation.NonNegative("transferTaxRate", in.TransferTaxRate),
		validation.Finite("propertyAppreciationRate", in.PropertyAppreciationRate),
		validation.PositiveInt("comparisonPeriodYears", in.ComparisonPeriodYears),
		validation.IntAtMost("comparisonPeriodYears", in.ComparisonPeriodYears, constants.MaxComparisonYears),
	)
	if err != nil {
		return err
	}
	if in.FixedRatePeriod < 0 {
		return &validation.InvalidInputError{
			Field:  "fixedRatePeriod",
			Value:  float64(in.FixedRatePeriod),
			Reason: "must not be negative",
		}
	}
	return nil
}

func (in Inputs) affordabilityInput() affordability.Input {
	return affordability.Input{
		Price:                  in.Price,
		Savings:                in.Savings,
		Notary:                 in.Notary,
		Valuation:              in.Valuation,
		FinancialAdvisor:       in.FinancialAdvisor,
		RealEstateAgent:        in.RealEstateAgent,
		StructuralSurvey:       in.StructuralSurvey,
		IsFirstTimeBuyer:       in.IsFirstTimeBuyer,
		TransferTaxRatePercent: in.TransferTaxRate,
	}
}

// Calculation holds every derived figure for one scenario.
type Calculation struct {
	Name          string                `json:"name"`
	Inputs        Inputs                `json:"inputs"`
	RateSource    string                `json:"rateSource"`
	Affordability affordability.Result  `json:"affordability"`
	Annuity       loans.Schedule        `json:"annuity"`
	Linear        loans.Schedule        `json:"linear"`
	Comparison    rentvsbuy.Projection  `json:"comparison"`
	Segment       affordability.Segment `json:"segment"`
	Duration      time.Duration         `json:"-"`
}

// Schedule returns the schedule for the given policy.
func (c Calculation) Schedule(policy loans.Policy) loans.Schedule {
	if policy == loans.Linear {
		return c.Linear
	}
	return c.Annuity
}

// Calculator runs calculations against a reference rate table.
type Calculator struct {
	logger    *zap.Logger
	rates     rates.Table
	generator *loans.ScheduleGenerator
}

// New creates a Calculator. A nil table uses the built-in reference rates.
func New(logger *zap.Logger, table rates.Table) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if table == nil {
		table = rates.DefaultTable()
	}
	return &Calculator{
		logger:    logger,
		rates:     table,
		generator: loans.NewScheduleGenerator(logger),
	}
}

// Calculate runs a single calculation with the built-in reference rates.
func Calculate(logger *zap.Logger, name string, in Inputs) (Calculation, error) {
	return New(logger, nil).Calculate(name, in)
}

// Calculate validates the inputs and computes affordability, both repayment
// schedules and the rent vs buy projection. Nothing is returned on error.
func (c *Calculator) Calculate(name string, in Inputs) (Calculation, error) {
	start := time.Now()

	if err := in.Validate(); err != nil {
		return Calculation{}, err
	}

	result, err := affordability.Compute(in.affordabilityInput())
	if err != nil {
		return Calculation{}, err
	}
	if result.Loan < 0 {
		return Calculation{}, &validation.InvalidInputError{
			Field:  "savings",
			Value:  in.Savings,
			Reason: "exceed the price plus purchase costs",
		}
	}

	calc := Calculation{
		Name:          name,
		RateSource:    RateSourceInput,
		Affordability: result,
		Segment:       affordability.SegmentForPrice(in.Price),
	}

	if in.InterestRate == 0 && in.FixedRatePeriod > 0 {
		rate, err := rates.Lookup(c.rates, in.FixedRatePeriod, result.LoanToValueRatio, result.GuaranteeEligible)
		if err != nil {
			return Calculation{}, &validation.InvalidInputError{
				Field:  "fixedRatePeriod",
				Value:  float64(in.FixedRatePeriod),
				Reason: err.Error(),
			}
		}
		c.logger.Debug(fmt.Sprintf("using reference rate %.2f%% for %s", rate, name),
			zap.String("op", "calculator.Calculate"),
			zap.Int("fixedRatePeriod", in.FixedRatePeriod),
			zap.Float64("loanToValue", result.LoanToValueRatio),
		)
		in.InterestRate = rate
		calc.RateSource = RateSourceReference
	}
	calc.Inputs = in

	terms := loans.LoanTerms{
		AnnualRatePercent: in.InterestRate,
		TermMonths:        constants.TermMonths,
		Principal:         result.Loan,
	}
	if calc.Annuity, err = c.generator.Generate(loans.Annuity, terms, in.TaxDeduction, in.Savings); err != nil {
		return Calculation{}, err
	}
	if calc.Linear, err = c.generator.Generate(loans.Linear, terms, in.TaxDeduction, in.Savings); err != nil {
		return Calculation{}, err
	}

	calc.Comparison, err = rentvsbuy.Project(rentvsbuy.Input{
		Loan:                    result.Loan,
		TotalCost:               result.TotalCost,
		MonthlyNetPayment:       calc.Annuity.MonthlyNetPayment(),
		Price:                   in.Price,
		MonthlyRent:             in.Rent,
		Savings:                 in.Savings,
		AppreciationRatePercent: in.PropertyAppreciationRate,
		Years:                   in.ComparisonPeriodYears,
	})
	if err != nil {
		return Calculation{}, err
	}

	calc.Duration = time.Since(start)
	c.logger.Debug(fmt.Sprintf("calculated %s", name),
		zap.String("op", "calculator.Calculate"),
		zap.Float64("loan", result.Loan),
		zap.Float64("totalCost", result.TotalCost),
		zap.Int("breakEvenYear", calc.Comparison.BreakEvenYear),
		zap.Duration("duration", calc.Duration),
	)

	return calc, nil
}

// GetCalculations processes every active scenario of the configuration in
// file order.
func GetCalculations(logger *zap.Logger, conf config.Configuration) ([]Calculation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	calculator := New(logger, nil)
	var results []Calculation
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "calculator.GetCalculations"),
			)
			continue
		}

		calc, err := calculator.Calculate(scenario.Name, FromScenario(conf.Common, scenario))
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		results = append(results, calc)
	}

	return results, nil
}
