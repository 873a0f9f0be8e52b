// Package affordability derives the loan amount and acquisition costs for a
// property purchase.
package affordability

import (
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
)

// Input holds the purchase price, own funds and ancillary costs.
type Input struct {
	Price                  float64 `json:"price"`
	Savings                float64 `json:"savings"`
	Notary                 float64 `json:"notary"`
	Valuation              float64 `json:"valuation"`
	FinancialAdvisor       float64 `json:"financialAdvisor"`
	RealEstateAgent        float64 `json:"realEstateAgent"`
	StructuralSurvey       float64 `json:"structuralSurvey"`
	IsFirstTimeBuyer       bool    `json:"isFirstTimeBuyer"`
	TransferTaxRatePercent float64 `json:"transferTaxRate"`
}

// Result holds the derived loan figures.
type Result struct {
	Loan              float64 `json:"loan"`
	TotalCost         float64 `json:"totalCost"`
	LoanToValueRatio  float64 `json:"loanToValueRatio"`
	TransferTaxAmount float64 `json:"transferTaxAmount"`
	TransferTaxExempt bool    `json:"transferTaxExempt"`

	// Breakdown of TotalCost.
	BankGuarantee     float64 `json:"bankGuarantee"`
	GuaranteeEligible bool    `json:"guaranteeEligible"`
	GuaranteeFee      float64 `json:"guaranteeFee"`
}

// Validate rejects negative, NaN or infinite amounts and a non-positive price.
func (in Input) Validate() error {
	return validation.First(
		validation.Positive("price", in.Price),
		validation.NonNegative("savings", in.Savings),
		validation.NonNegative("notary", in.Notary),
		validation.NonNegative("valuation", in.Valuation),
		validation.NonNegative("financialAdvisor", in.FinancialAdvisor),
		validation.NonNegative("realEstateAgent", in.RealEstateAgent),
		validation.NonNegative("structuralSurvey", in.StructuralSurvey),
		validation.NonNegative("transferTaxRate", in.TransferTaxRatePercent),
	)
}

// TransferTaxExempt reports whether a purchase qualifies for the
// first-time-buyer exemption.
func TransferTaxExempt(isFirstTimeBuyer bool, price float64) bool {
	return isFirstTimeBuyer && price < constants.FirstTimeBuyerPriceLimit
}

// GuaranteeEligible reports whether the price is within the mortgage
// guarantee cap.
func GuaranteeEligible(price float64) bool {
	return price <= constants.MaxGuaranteePrice
}

// Compute derives the loan, total acquisition cost and loan-to-value ratio.
// The loan is sized on the costs before the guarantee fee; the fee is then
// charged once on that loan.
func Compute(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	var r Result
	r.BankGuarantee = constants.BankGuaranteeRate * in.Price
	r.TransferTaxExempt = TransferTaxExempt(in.IsFirstTimeBuyer, in.Price)
	if !r.TransferTaxExempt {
		r.TransferTaxAmount = mathutil.PercentToDecimal(in.TransferTaxRatePercent) * in.Price
	}
	r.GuaranteeEligible = GuaranteeEligible(in.Price)

	baseCost := r.BankGuarantee +
		r.TransferTaxAmount +
		in.Notary +
		in.Valuation +
		in.FinancialAdvisor +
		in.RealEstateAgent +
		in.StructuralSurvey

	divisor := 1.0
	if r.GuaranteeEligible {
		divisor = 1 - constants.GuaranteeFeeRate
	}
	r.Loan = (in.Price - in.Savings + baseCost) / divisor

	if r.GuaranteeEligible {
		r.GuaranteeFee = constants.GuaranteeFeeRate * r.Loan
	}
	r.TotalCost = baseCost + r.GuaranteeFee
	r.LoanToValueRatio = r.Loan / in.Price

	return r, nil
}
