package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mereb-hub/finance-hub/internal/model"
)

type SummarySource interface {
	BudgetSummary(ctx context.Context) (*model.BudgetSummary, error)
}

type ProjectLister interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
}

type DispatchLogSource interface {
	Latest(ctx context.Context, logType string) (*model.DispatchLogEntry, error)
}

type ExcelGenerator interface {
	Generate(summary model.BudgetSummary, projects []model.Project, departments []model.Department) ([]byte, error)
}

type PDFGenerator interface {
	Generate(summary model.BudgetSummary) ([]byte, error)
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// ReportService serves the reporting surface: aggregate summaries, the
// Excel/PDF exports and the dispatch status indicator.
type ReportService struct {
	aggregates  SummarySource
	projects    ProjectLister
	departments DepartmentStore
	logs        DispatchLogSource
	excel       ExcelGenerator
	pdf         PDFGenerator
	log         zerolog.Logger
}

func NewReportService(
	aggregates SummarySource,
	projects ProjectLister,
	departments DepartmentStore,
	logs DispatchLogSource,
	excel ExcelGenerator,
	pdf PDFGenerator,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		aggregates:  aggregates,
		projects:    projects,
		departments: departments,
		logs:        logs,
		excel:       excel,
		pdf:         pdf,
		log:         log,
	}
}

// ListProjects scopes the collection by role: admins and finance see
// everything, regular users only their own portfolio.
func (s *ReportService) ListProjects(ctx context.Context, principal model.Principal) ([]model.Project, error) {
	if principal.IsSuperAdmin() || principal.IsFinance() {
		return s.projects.ListProjects(ctx)
	}
	return s.projects.ListByOwner(ctx, principal.UserID)
}

func (s *ReportService) Summary(ctx context.Context, principal model.Principal) (*model.BudgetSummary, error) {
	if !principal.IsSuperAdmin() && !principal.IsFinance() {
		return nil, ErrPermissionDenied
	}
	return s.aggregates.BudgetSummary(ctx)
}

func (s *ReportService) ExportExcel(ctx context.Context, principal model.Principal) (*ExportResult, error) {
	summary, projects, departments, err := s.exportData(ctx, principal)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*summary, projects, departments)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("budget-report-%s.xlsx", summary.GeneratedAt.Format("20060102")),
		Content:  content,
	}, nil
}

func (s *ReportService) ExportPDF(ctx context.Context, principal model.Principal) (*ExportResult, error) {
	summary, _, _, err := s.exportData(ctx, principal)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(*summary)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("budget-report-%s.pdf", summary.GeneratedAt.Format("20060102")),
		Content:  content,
	}, nil
}

// DispatchStatus returns the latest monthly dispatch record, or nil when
// the system is still awaiting its first successful cycle.
func (s *ReportService) DispatchStatus(ctx context.Context, principal model.Principal) (*model.DispatchLogEntry, error) {
	if !principal.IsSuperAdmin() && !principal.IsFinance() {
		return nil, ErrPermissionDenied
	}
	return s.logs.Latest(ctx, model.LogTypeMonthlyReportDispatch)
}

func (s *ReportService) exportData(ctx context.Context, principal model.Principal) (*model.BudgetSummary, []model.Project, []model.Department, error) {
	if !principal.IsSuperAdmin() && !principal.IsFinance() {
		return nil, nil, nil, ErrPermissionDenied
	}
	summary, err := s.aggregates.BudgetSummary(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return summary, projects, departments, nil
}
