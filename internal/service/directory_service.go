package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mereb-hub/finance-hub/internal/model"
	"github.com/mereb-hub/finance-hub/internal/repository"
)

type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user model.User) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, patch repository.UserPatch) error
}

type DepartmentStore interface {
	List(ctx context.Context) ([]model.Department, error)
	Upsert(ctx context.Context, dept model.Department) (*model.Department, error)
}

// DirectoryService covers user and department administration plus the
// login lookup. Only the session contract matters here: credential
// verification stays outside the core.
type DirectoryService struct {
	users       UserStore
	departments DepartmentStore
	log         zerolog.Logger
}

func NewDirectoryService(users UserStore, departments DepartmentStore, log zerolog.Logger) *DirectoryService {
	return &DirectoryService{users: users, departments: departments, log: log}
}

// Login resolves an email to an active user. Unknown or deactivated
// accounts both map to ErrPermissionDenied so callers cannot probe which.
func (s *DirectoryService) Login(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrPermissionDenied
	}
	return user, nil
}

func (s *DirectoryService) ListUsers(ctx context.Context, principal model.Principal) ([]model.User, error) {
	if !principal.IsSuperAdmin() && !principal.IsFinance() {
		return nil, ErrPermissionDenied
	}
	return s.users.List(ctx)
}

type CreateUserInput struct {
	Name         string
	Email        string
	Role         model.UserRole
	DepartmentID uuid.UUID
}

func (s *DirectoryService) CreateUser(ctx context.Context, principal model.Principal, input CreateUserInput) (*model.User, error) {
	if !principal.IsSuperAdmin() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	switch input.Role {
	case model.RoleSuperAdmin, model.RoleFinance, model.RoleUser:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}
	if input.DepartmentID == uuid.Nil {
		return nil, fmt.Errorf("%w: department is required", ErrInvalidInput)
	}

	user, err := s.users.Create(ctx, model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

// UpdateUser applies an admin patch. Role changes take effect on the
// next token issued; deactivation blocks the next login.
func (s *DirectoryService) UpdateUser(ctx context.Context, principal model.Principal, id uuid.UUID, patch repository.UserPatch) (*model.User, error) {
	if !principal.IsSuperAdmin() {
		return nil, ErrPermissionDenied
	}
	if patch.Role != nil {
		switch *patch.Role {
		case model.RoleSuperAdmin, model.RoleFinance, model.RoleUser:
		default:
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *patch.Role)
		}
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.users.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *DirectoryService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	return s.departments.List(ctx)
}

func (s *DirectoryService) UpsertDepartment(ctx context.Context, principal model.Principal, dept model.Department) (*model.Department, error) {
	if !principal.IsSuperAdmin() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(dept.Name) == "" {
		return nil, fmt.Errorf("%w: department name is required", ErrInvalidInput)
	}
	if dept.BudgetCap < 0 {
		return nil, fmt.Errorf("%w: budget cap must be non-negative", ErrInvalidInput)
	}
	saved, err := s.departments.Upsert(ctx, dept)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return saved, nil
}
