package model

import "github.com/google/uuid"

// Department groups users and projects. BudgetCap is an advisory ceiling
// in minor units; it is not enforced against project budgets.
type Department struct {
	ID        uuid.UUID
	Name      string
	BudgetCap int64
}
