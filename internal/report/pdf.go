package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/mereb-hub/finance-hub/internal/model"
)

type PDFGenerator struct{}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Generate renders a printable one-page budget summary.
func (g *PDFGenerator) Generate(summary model.BudgetSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Institutional Budget Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", summary.GeneratedAt.Format("2006-01-02")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Portfolio Overview", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	lines := []string{
		fmt.Sprintf("Total projects: %d (%d active)", summary.TotalProjects, summary.ActiveProjects),
		fmt.Sprintf("Total approved budget: %s", FormatCents(summary.TotalApproved)),
		fmt.Sprintf("Total liquidated funds: %s", FormatCents(summary.TotalSpent)),
		fmt.Sprintf("Utilization rate: %.2f%%", summary.UtilizationPercent()),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Departments", "", 1, "L", false, 0, "")

	headers := []string{"Department", "Approved", "Spent", "Projects"}
	colWidths := []float64{80, 40, 40, 20}
	drawTableRow(pdf, headers, colWidths, true)

	for _, dept := range summary.Departments {
		row := []string{
			dept.Name,
			FormatCents(dept.ApprovedBudget),
			FormatCents(dept.SpentBudget),
			fmt.Sprintf("%d", dept.ProjectCount),
		}
		drawTableRow(pdf, row, colWidths, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont("Arial", style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}
