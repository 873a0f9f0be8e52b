// Package output provides utilities for formatting and displaying calculation results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/mortgage-calculator/internal/calculator"
	"github.com/iwvelando/mortgage-calculator/pkg/format"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, results []calculator.Calculation) error {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := prettySummary(w, result); err != nil {
			return err
		}
		if err := prettySchedules(w, p, result); err != nil {
			return err
		}
		if err := prettyComparison(w, p, result); err != nil {
			return err
		}
	}
	return nil
}

func prettySummary(w io.Writer, result calculator.Calculation) error {
	a := result.Affordability
	transferTax := format.Currency(a.TransferTaxAmount)
	if a.TransferTaxExempt {
		transferTax += " (exempt)"
	}
	rate := format.Percent(result.Inputs.InterestRate)
	if result.RateSource == calculator.RateSourceReference {
		rate += fmt.Sprintf(" (reference, %d years fixed)", result.Inputs.FixedRatePeriod)
	}

	lines := [][2]string{
		{"Price", format.Currency(result.Inputs.Price)},
		{"Savings", format.Currency(result.Inputs.Savings)},
		{"Loan", format.Currency(a.Loan)},
		{"Total cost", format.Currency(a.TotalCost)},
		{"Transfer tax", transferTax},
		{"Loan to value", format.Percent(a.LoanToValueRatio * 100)},
		{"Interest rate", rate},
		{"Segment", string(result.Segment)},
		{"Annuity net/month", format.Currency(result.Annuity.MonthlyNetPayment())},
		{"Linear net/month", format.Currency(result.Linear.MonthlyNetPayment())},
		{"Annuity interest", format.Currency(result.Annuity.Totals.TotalInterestGross)},
		{"Linear interest", format.Currency(result.Linear.Totals.TotalInterestGross)},
	}

	if _, err := fmt.Fprintf(w, "--- Results for scenario %s ---\n", result.Name); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%-18s | %s\n", line[0], line[1]); err != nil {
			return err
		}
	}
	return nil
}

func prettySchedules(w io.Writer, p *message.Printer, result calculator.Calculation) error {
	annuity := loans.YearlySummary(result.Annuity)
	linear := loans.YearlySummary(result.Linear)

	if _, err := fmt.Fprintf(w, "\nYear | Annuity net | Annuity balance | Linear net | Linear balance\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "____ | ___________ | _______________ | __________ | ______________\n"); err != nil {
		return err
	}
	for i := range annuity {
		if i >= len(linear) {
			break
		}
		if _, err := p.Fprintf(w, "%4d | €%.2f | €%.2f | €%.2f | €%.2f\n",
			annuity[i].Year, annuity[i].NetPayment, annuity[i].EndBalance,
			linear[i].NetPayment, linear[i].EndBalance); err != nil {
			return err
		}
	}
	return nil
}

func prettyComparison(w io.Writer, p *message.Printer, result calculator.Calculation) error {
	comparison := result.Comparison
	if _, err := fmt.Fprintf(w, "\nRent vs buy (%d years)\n", len(comparison.Rows)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Year | Buying net worth | Renting net worth | Difference\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "____ | ________________ | _________________ | __________\n"); err != nil {
		return err
	}
	for _, row := range comparison.Rows {
		if _, err := p.Fprintf(w, "%4d | €%.2f | €%.2f | €%.2f\n",
			row.Year, row.BuyingNetWorth, row.RentingNetWorth, row.NetWorthDifference); err != nil {
			return err
		}
	}

	var err error
	if comparison.HasBreakEven() {
		_, err = fmt.Fprintf(w, "Buying breaks even in year %d\n", comparison.BreakEvenYear)
	} else {
		_, err = fmt.Fprintf(w, "Buying does not break even within %d years\n", len(comparison.Rows))
	}
	if err != nil {
		return err
	}

	if final, ok := comparison.Final(); ok {
		_, err = fmt.Fprintf(w, "Net worth difference after %d years: %s\n", final.Year, format.Currency(final.NetWorthDifference))
	}
	return err
}

// csvHeader is the column layout of CsvFormat.
var csvHeader = []string{
	"scenario", "policy", "month", "balance", "grossPayment",
	"principalPaid", "interestPaid", "taxDeduction", "netPayment",
}

// CsvFormat writes every monthly row of both schedules in comma-separated
// value format, one scenario after another.
func CsvFormat(w io.Writer, results []calculator.Calculation) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		for _, policy := range loans.Policies {
			for _, row := range result.Schedule(policy).Rows {
				record := []string{
					result.Name,
					string(policy),
					strconv.Itoa(row.Month),
					amount(row.Balance),
					amount(row.GrossPayment),
					amount(row.PrincipalPaid),
					amount(row.InterestPaid),
					amount(row.TaxDeduction),
					amount(row.NetPayment),
				}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString returns the CsvFormat output as a string.
func CsvString(results []calculator.Calculation) (string, error) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, results); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// JSONFormat writes the full calculations as indented JSON.
func JSONFormat(w io.Writer, results []calculator.Calculation) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func amount(v float64) string {
	return format.RoundCents(v).StringFixed(2)
}
