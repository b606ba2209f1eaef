package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleFinance    UserRole = "FINANCE"
	RoleUser       UserRole = "USER"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Role         UserRole
	DepartmentID uuid.UUID
	Active       bool
	CreatedAt    time.Time
}

// Principal is the authenticated identity carried through request handling.
type Principal struct {
	UserID       uuid.UUID
	Role         UserRole
	DepartmentID uuid.UUID
}

func (p Principal) IsSuperAdmin() bool {
	return p.Role == RoleSuperAdmin
}

func (p Principal) IsFinance() bool {
	return p.Role == RoleFinance
}
