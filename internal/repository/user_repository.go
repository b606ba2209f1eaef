package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mereb-hub/finance-hub/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UserPatch carries the fields an admin may change; nil means untouched.
type UserPatch struct {
	Name         *string
	Role         *model.UserRole
	DepartmentID *uuid.UUID
	Active       *bool
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, email, role, department_id, active, created_at
		FROM users
		ORDER BY name ASC
	`).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, email, role, department_id, active, created_at
		FROM users
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, email, role, department_id, active, created_at
		FROM users
		WHERE email = ?
		LIMIT 1
	`, email).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (*model.User, error) {
	var saved model.User
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO users (name, email, role, department_id, active)
		VALUES (?, ?, ?, ?, TRUE)
		RETURNING id, name, email, role, department_id, active, created_at
	`, user.Name, user.Email, user.Role, user.DepartmentID).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// Update applies a partial patch. Users are soft-disabled via the active
// flag, never deleted.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, patch UserPatch) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET
			name = COALESCE(?, name),
			role = COALESCE(?, role),
			department_id = COALESCE(?, department_id),
			active = COALESCE(?, active)
		WHERE id = ?
	`, patch.Name, patch.Role, patch.DepartmentID, patch.Active, id).Error
}
