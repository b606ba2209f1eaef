package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mereb-hub/finance-hub/internal/model"
)

// AggregateRepository computes the figures the monthly report and the
// export endpoints are built from.
type AggregateRepository struct {
	db *gorm.DB
}

func NewAggregateRepository(db *gorm.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

func (r *AggregateRepository) BudgetSummary(ctx context.Context) (*model.BudgetSummary, error) {
	var totals struct {
		TotalProjects  int64
		ActiveProjects int64
		TotalApproved  int64
		TotalSpent     int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_projects,
			COUNT(*) FILTER (WHERE status NOT IN ('COMPLETED', 'REJECTED')) AS active_projects,
			COALESCE(SUM(approved_budget), 0) AS total_approved,
			COALESCE(SUM(spent_budget), 0) AS total_spent
		FROM projects
	`).Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var departments []model.DepartmentBreakdown
	err = r.db.WithContext(ctx).Raw(`
		SELECT
			d.id,
			d.name,
			COALESCE(SUM(p.approved_budget), 0) AS approved_budget,
			COALESCE(SUM(p.spent_budget), 0) AS spent_budget,
			COUNT(p.id) AS project_count
		FROM departments d
		LEFT JOIN projects p ON p.department_id = d.id
		GROUP BY d.id, d.name
		ORDER BY d.name ASC
	`).Scan(&departments).Error
	if err != nil {
		return nil, err
	}

	return &model.BudgetSummary{
		TotalProjects:  totals.TotalProjects,
		ActiveProjects: totals.ActiveProjects,
		TotalApproved:  totals.TotalApproved,
		TotalSpent:     totals.TotalSpent,
		GeneratedAt:    time.Now().UTC(),
		Departments:    departments,
	}, nil
}
