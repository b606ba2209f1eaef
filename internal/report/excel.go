package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/mereb-hub/finance-hub/internal/model"
)

type ExcelGenerator struct{}

func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Generate builds the budget workbook: a summary sheet with per-
// department figures and a project sheet listing every request.
func (g *ExcelGenerator) Generate(summary model.BudgetSummary, projects []model.Project, departments []model.Department) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, summary); err != nil {
		return nil, err
	}

	projectSheet := "Projects"
	file.NewSheet(projectSheet)
	if err := g.writeProjects(file, projectSheet, projects, departments); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(file *excelize.File, sheet string, summary model.BudgetSummary) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Generated")
	set("B1", formatDate(summary.GeneratedAt))
	set("A2", "Total projects")
	set("B2", summary.TotalProjects)
	set("A3", "Active projects")
	set("B3", summary.ActiveProjects)
	set("A4", "Total approved budget")
	set("B4", FormatCents(summary.TotalApproved))
	set("A5", "Total liquidated funds")
	set("B5", FormatCents(summary.TotalSpent))
	set("A6", "Utilization rate")
	set("B6", fmt.Sprintf("%.2f%%", summary.UtilizationPercent()))

	tableRow := 8
	set(fmt.Sprintf("A%d", tableRow), "Department")
	set(fmt.Sprintf("B%d", tableRow), "Approved")
	set(fmt.Sprintf("C%d", tableRow), "Spent")
	set(fmt.Sprintf("D%d", tableRow), "Projects")

	for i, dept := range summary.Departments {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), dept.Name)
		set(fmt.Sprintf("B%d", row), FormatCents(dept.ApprovedBudget))
		set(fmt.Sprintf("C%d", row), FormatCents(dept.SpentBudget))
		set(fmt.Sprintf("D%d", row), dept.ProjectCount)
	}

	_ = file.SetColWidth(sheet, "A", "A", 36)
	_ = file.SetColWidth(sheet, "B", "C", 18)
	_ = file.SetColWidth(sheet, "D", "D", 10)
	return nil
}

func (g *ExcelGenerator) writeProjects(file *excelize.File, sheet string, projects []model.Project, departments []model.Department) error {
	deptNames := make(map[uuid.UUID]string, len(departments))
	for _, dept := range departments {
		deptNames[dept.ID] = dept.Name
	}

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Title",
		"Department",
		"Requested",
		"Approved",
		"Spent",
		"Status",
		"Deadline",
		"Created",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, project := range projects {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), project.Title)
		set(fmt.Sprintf("B%d", row), deptNames[project.DepartmentID])
		set(fmt.Sprintf("C%d", row), FormatCents(project.RequestedBudget))
		set(fmt.Sprintf("D%d", row), FormatCents(project.ApprovedBudget))
		set(fmt.Sprintf("E%d", row), FormatCents(project.SpentBudget))
		set(fmt.Sprintf("F%d", row), string(project.Status))
		set(fmt.Sprintf("G%d", row), formatDate(project.Deadline))
		set(fmt.Sprintf("H%d", row), formatDate(project.CreatedAt))
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "B", 28)
	_ = file.SetColWidth(sheet, "C", "E", 16)
	_ = file.SetColWidth(sheet, "F", "H", 14)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
