package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mereb-hub/finance-hub/internal/model"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) List(ctx context.Context) ([]model.Department, error) {
	var departments []model.Department
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, budget_cap
		FROM departments
		ORDER BY name ASC
	`).Scan(&departments).Error
	if err != nil {
		return nil, err
	}
	return departments, nil
}

// Upsert creates the department when ID is nil, updates it otherwise.
func (r *DepartmentRepository) Upsert(ctx context.Context, dept model.Department) (*model.Department, error) {
	var saved model.Department
	if dept.ID == uuid.Nil {
		err := r.db.WithContext(ctx).Raw(`
			INSERT INTO departments (name, budget_cap)
			VALUES (?, ?)
			RETURNING id, name, budget_cap
		`, dept.Name, dept.BudgetCap).Scan(&saved).Error
		if err != nil {
			return nil, err
		}
		return &saved, nil
	}

	err := r.db.WithContext(ctx).Raw(`
		UPDATE departments
		SET name = ?, budget_cap = ?
		WHERE id = ?
		RETURNING id, name, budget_cap
	`, dept.Name, dept.BudgetCap, dept.ID).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	if saved.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &saved, nil
}
