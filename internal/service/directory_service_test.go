package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mereb-hub/finance-hub/internal/model"
	"github.com/mereb-hub/finance-hub/internal/repository"
)

type fakeUserStore struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserStore) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) Create(_ context.Context, user model.User) (*model.User, error) {
	user.ID = uuid.New()
	user.Active = true
	f.users[user.ID] = &user
	clone := user
	return &clone, nil
}

func (f *fakeUserStore) Update(_ context.Context, id uuid.UUID, patch repository.UserPatch) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.DepartmentID != nil {
		user.DepartmentID = *patch.DepartmentID
	}
	if patch.Active != nil {
		user.Active = *patch.Active
	}
	return nil
}

func (f *fakeUserStore) seed(user *model.User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
}

type fakeDepartmentStore struct {
	departments map[uuid.UUID]*model.Department
}

func newFakeDepartmentStore() *fakeDepartmentStore {
	return &fakeDepartmentStore{departments: make(map[uuid.UUID]*model.Department)}
}

func (f *fakeDepartmentStore) List(_ context.Context) ([]model.Department, error) {
	out := make([]model.Department, 0, len(f.departments))
	for _, dept := range f.departments {
		out = append(out, *dept)
	}
	return out, nil
}

func (f *fakeDepartmentStore) Upsert(_ context.Context, dept model.Department) (*model.Department, error) {
	if dept.ID == uuid.Nil {
		dept.ID = uuid.New()
	} else if _, ok := f.departments[dept.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	f.departments[dept.ID] = &dept
	clone := dept
	return &clone, nil
}

func adminPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleSuperAdmin, DepartmentID: uuid.New()}
}

func testDirectory(users *fakeUserStore, departments *fakeDepartmentStore) *DirectoryService {
	return NewDirectoryService(users, departments, zerolog.Nop())
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves an active account case-insensitively", func(t *testing.T) {
		users := newFakeUserStore()
		users.seed(&model.User{Email: "finance@institution.example", Active: true, Role: model.RoleFinance})
		directory := testDirectory(users, newFakeDepartmentStore())

		user, err := directory.Login(ctx, "  Finance@Institution.Example ")
		require.NoError(t, err)
		assert.Equal(t, model.RoleFinance, user.Role)
	})

	t.Run("unknown and deactivated accounts are indistinguishable", func(t *testing.T) {
		users := newFakeUserStore()
		users.seed(&model.User{Email: "gone@institution.example", Active: false})
		directory := testDirectory(users, newFakeDepartmentStore())

		_, unknownErr := directory.Login(ctx, "nobody@institution.example")
		_, inactiveErr := directory.Login(ctx, "gone@institution.example")
		assert.ErrorIs(t, unknownErr, ErrPermissionDenied)
		assert.ErrorIs(t, inactiveErr, ErrPermissionDenied)
	})

	t.Run("empty email is invalid", func(t *testing.T) {
		directory := testDirectory(newFakeUserStore(), newFakeDepartmentStore())
		_, err := directory.Login(ctx, "   ")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestUserAdministration(t *testing.T) {
	ctx := context.Background()

	t.Run("only admins create users", func(t *testing.T) {
		directory := testDirectory(newFakeUserStore(), newFakeDepartmentStore())
		input := CreateUserInput{Name: "A", Email: "a@b.c", Role: model.RoleUser, DepartmentID: uuid.New()}

		_, err := directory.CreateUser(ctx, financePrincipal(), input)
		assert.ErrorIs(t, err, ErrPermissionDenied)

		user, err := directory.CreateUser(ctx, adminPrincipal(), input)
		require.NoError(t, err)
		assert.True(t, user.Active)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		directory := testDirectory(newFakeUserStore(), newFakeDepartmentStore())
		_, err := directory.CreateUser(ctx, adminPrincipal(), CreateUserInput{
			Name: "A", Email: "a@b.c", Role: "OVERLORD", DepartmentID: uuid.New(),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("deactivation patch sticks", func(t *testing.T) {
		users := newFakeUserStore()
		target := &model.User{Email: "x@b.c", Active: true, Role: model.RoleUser}
		users.seed(target)
		directory := testDirectory(users, newFakeDepartmentStore())

		inactive := false
		updated, err := directory.UpdateUser(ctx, adminPrincipal(), target.ID, repository.UserPatch{Active: &inactive})
		require.NoError(t, err)
		assert.False(t, updated.Active)

		_, err = directory.Login(ctx, "x@b.c")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("patching a missing user is not found", func(t *testing.T) {
		directory := testDirectory(newFakeUserStore(), newFakeDepartmentStore())
		name := "N"
		_, err := directory.UpdateUser(ctx, adminPrincipal(), uuid.New(), repository.UserPatch{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("listing is gated to admin and finance", func(t *testing.T) {
		directory := testDirectory(newFakeUserStore(), newFakeDepartmentStore())

		_, err := directory.ListUsers(ctx, ownerPrincipal(uuid.New()))
		assert.ErrorIs(t, err, ErrPermissionDenied)

		_, err = directory.ListUsers(ctx, financePrincipal())
		assert.NoError(t, err)
	})
}

func TestDepartmentAdministration(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert creates and updates", func(t *testing.T) {
		departments := newFakeDepartmentStore()
		directory := testDirectory(newFakeUserStore(), departments)

		created, err := directory.UpsertDepartment(ctx, adminPrincipal(), model.Department{
			Name: "Engineering", BudgetCap: 50_000_00,
		})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, created.ID)

		updated, err := directory.UpsertDepartment(ctx, adminPrincipal(), model.Department{
			ID: created.ID, Name: "Engineering", BudgetCap: 60_000_00,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(60_000_00), updated.BudgetCap)
	})

	t.Run("validates name and cap", func(t *testing.T) {
		directory := testDirectory(newFakeUserStore(), newFakeDepartmentStore())

		_, err := directory.UpsertDepartment(ctx, adminPrincipal(), model.Department{Name: "  "})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = directory.UpsertDepartment(ctx, adminPrincipal(), model.Department{Name: "Ops", BudgetCap: -1})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("only admins mutate departments", func(t *testing.T) {
		directory := testDirectory(newFakeUserStore(), newFakeDepartmentStore())
		_, err := directory.UpsertDepartment(ctx, financePrincipal(), model.Department{Name: "Ops"})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}
