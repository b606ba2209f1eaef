package model

import (
	"time"

	"github.com/google/uuid"
)

type DepartmentBreakdown struct {
	ID             uuid.UUID
	Name           string
	ApprovedBudget int64
	SpentBudget    int64
	ProjectCount   int64
}

// BudgetSummary holds the aggregate figures the monthly report and the
// export endpoints are built from.
type BudgetSummary struct {
	TotalProjects  int64
	ActiveProjects int64
	TotalApproved  int64
	TotalSpent     int64
	GeneratedAt    time.Time
	Departments    []DepartmentBreakdown
}

// UtilizationPercent is spent over approved, zero when nothing approved.
func (s BudgetSummary) UtilizationPercent() float64 {
	if s.TotalApproved <= 0 {
		return 0
	}
	return float64(s.TotalSpent) / float64(s.TotalApproved) * 100
}
