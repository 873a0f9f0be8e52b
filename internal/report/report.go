// Package report renders a calculation as a PDF document.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/iwvelando/mortgage-calculator/internal/calculator"
	"github.com/iwvelando/mortgage-calculator/pkg/format"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// ErrEmptyCalculation is returned for calculations without schedules.
var ErrEmptyCalculation = errors.New("calculation has no repayment schedule")

type pdfReport struct {
	pdf  *fpdf.Fpdf
	tr   func(string) string
	calc calculator.Calculation
}

// Generate renders a summary page, the yearly annuity and linear schedules
// and the rent vs buy comparison.
func Generate(calc calculator.Calculation) ([]byte, error) {
	if len(calc.Annuity.Rows) == 0 || len(calc.Linear.Rows) == 0 {
		return nil, ErrEmptyCalculation
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	r := &pdfReport{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		calc: calc,
	}

	pdf.SetTitle(fmt.Sprintf("Mortgage calculation: %s", calc.Name), true)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	r.addSummaryPage()
	r.addSchedulePage()
	r.addComparisonPage()

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *pdfReport) addSummaryPage() {
	r.pdf.AddPage()

	r.pdf.SetFont("Arial", "B", 22)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 12, r.tr("Mortgage Calculation"), "", 1, "C", false, 0, "")
	r.pdf.SetFont("Arial", "", 13)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.CellFormat(contentWidth, 8, r.tr(r.calc.Name), "", 1, "C", false, 0, "")
	r.pdf.SetFont("Arial", "I", 10)
	r.pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Generated: %s", time.Now().Format("2 January 2006")), "", 1, "C", false, 0, "")
	r.pdf.Ln(8)

	in := r.calc.Inputs
	a := r.calc.Affordability
	transferTax := format.Currency(a.TransferTaxAmount)
	if a.TransferTaxExempt {
		transferTax += " (exempt)"
	}
	rate := format.Percent(in.InterestRate)
	if r.calc.RateSource == calculator.RateSourceReference {
		rate += fmt.Sprintf(" (reference, %d years fixed)", in.FixedRatePeriod)
	}

	r.drawSectionHeader("Purchase")
	r.drawKeyValues([][2]string{
		{"Price", format.Currency(in.Price)},
		{"Savings", format.Currency(in.Savings)},
		{"Notary", format.Currency(in.Notary)},
		{"Valuation", format.Currency(in.Valuation)},
		{"Financial advisor", format.Currency(in.FinancialAdvisor)},
		{"Real estate agent", format.Currency(in.RealEstateAgent)},
		{"Structural survey", format.Currency(in.StructuralSurvey)},
		{"Bank guarantee", format.Currency(a.BankGuarantee)},
		{"Transfer tax", transferTax},
		{"Guarantee fee", format.Currency(a.GuaranteeFee)},
	})

	r.pdf.Ln(6)
	r.drawSectionHeader("Loan")
	r.drawKeyValues([][2]string{
		{"Loan", format.Currency(a.Loan)},
		{"Total cost", format.Currency(a.TotalCost)},
		{"Loan to value", format.Percent(a.LoanToValueRatio * 100)},
		{"Interest rate", rate},
		{"Tax deduction", format.Percent(in.TaxDeduction)},
		{"Price segment", string(r.calc.Segment)},
	})

	r.pdf.Ln(6)
	r.drawSectionHeader("Totals")
	widths := []float64{60, 60, 60}
	r.drawTableHeader([]string{"", "Annuity", "Linear"}, widths)
	annuity, linear := r.calc.Annuity, r.calc.Linear
	rows := [][]string{
		{"Net per month (avg)", format.Currency(annuity.MonthlyNetPayment()), format.Currency(linear.MonthlyNetPayment())},
		{"Total paid gross", format.Currency(annuity.Totals.TotalPaidGross), format.Currency(linear.Totals.TotalPaidGross)},
		{"Total paid net", format.Currency(annuity.Totals.TotalPaidNet), format.Currency(linear.Totals.TotalPaidNet)},
		{"Interest gross", format.Currency(annuity.Totals.TotalInterestGross), format.Currency(linear.Totals.TotalInterestGross)},
		{"Interest net", format.Currency(annuity.Totals.TotalInterestNet), format.Currency(linear.Totals.TotalInterestNet)},
		{"Invested net", format.Currency(annuity.Totals.TotalInvestedNet), format.Currency(linear.Totals.TotalInvestedNet)},
	}
	for _, row := range rows {
		r.drawTableRow(row, widths, false)
	}
}

func (r *pdfReport) addSchedulePage() {
	r.pdf.AddPage()
	r.drawSectionHeader("Yearly repayment")

	widths := []float64{12, 42, 42, 42, 42}
	r.drawTableHeader([]string{"Year", "Annuity net (€)", "Annuity balance (€)", "Linear net (€)", "Linear balance (€)"}, widths)

	annuity := loans.YearlySummary(r.calc.Annuity)
	linear := loans.YearlySummary(r.calc.Linear)
	for i := range annuity {
		if i >= len(linear) {
			break
		}
		r.drawTableRow([]string{
			fmt.Sprintf("%d", annuity[i].Year),
			format.NumericCurrency(annuity[i].NetPayment),
			format.NumericCurrency(annuity[i].EndBalance),
			format.NumericCurrency(linear[i].NetPayment),
			format.NumericCurrency(linear[i].EndBalance),
		}, widths, false)
	}
}

func (r *pdfReport) addComparisonPage() {
	comparison := r.calc.Comparison
	if len(comparison.Rows) == 0 {
		return
	}

	r.pdf.AddPage()
	r.drawSectionHeader(fmt.Sprintf("Rent vs buy (%d years)", len(comparison.Rows)))

	widths := []float64{12, 42, 42, 42, 42}
	r.drawTableHeader([]string{"Year", "Property value", "Buying", "Renting", "Difference"}, widths)
	for _, row := range comparison.Rows {
		r.drawTableRow([]string{
			fmt.Sprintf("%d", row.Year),
			format.Currency(row.PropertyValue),
			format.Currency(row.BuyingNetWorth),
			format.Currency(row.RentingNetWorth),
			format.Currency(row.NetWorthDifference),
		}, widths, row.Year == comparison.BreakEvenYear)
	}

	r.pdf.Ln(6)
	r.pdf.SetFont("Arial", "B", 11)
	r.pdf.SetTextColor(0, 51, 102)
	summary := fmt.Sprintf("Buying does not break even within %d years.", len(comparison.Rows))
	if comparison.HasBreakEven() {
		summary = fmt.Sprintf("Buying breaks even in year %d.", comparison.BreakEvenYear)
	}
	r.pdf.CellFormat(contentWidth, 8, summary, "", 1, "L", false, 0, "")
	r.pdf.SetFont("Arial", "I", 8)
	r.pdf.SetTextColor(100, 100, 100)
	r.pdf.MultiCell(contentWidth, 4,
		"Assumes 2% annual rent growth, 3% return on savings kept invested and a straight-line loan payoff. This is not financial advice.",
		"", "L", false)
}

func (r *pdfReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 14)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 9, r.tr(title), "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(3)
}

func (r *pdfReport) drawKeyValues(pairs [][2]string) {
	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(50, 50, 50)
	for _, pair := range pairs {
		r.pdf.CellFormat(60, 6, r.tr(pair[0]), "", 0, "L", false, 0, "")
		r.pdf.CellFormat(contentWidth-60, 6, r.tr(pair[1]), "", 1, "R", false, 0, "")
	}
}

func (r *pdfReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)

	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, r.tr(header), "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *pdfReport) drawTableRow(cells []string, widths []float64, isBold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)

	if isBold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}

	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, r.tr(cell), "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

// Filename derives a PDF file name from a calculation name.
func Filename(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "mortgage-report.pdf"
	}
	return b.String() + ".pdf"
}
