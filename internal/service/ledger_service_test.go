package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mereb-hub/finance-hub/internal/model"
)

type fakeProjectStore struct {
	projects map[uuid.UUID]*model.Project
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[uuid.UUID]*model.Project)}
}

func (f *fakeProjectStore) GetByID(_ context.Context, id uuid.UUID) (*model.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *project
	clone.Receipts = append([]model.Receipt(nil), project.Receipts...)
	clone.ProgressUpdates = append([]model.ProgressUpdate(nil), project.ProgressUpdates...)
	return &clone, nil
}

func (f *fakeProjectStore) HasOpenProject(_ context.Context, ownerID uuid.UUID) (bool, error) {
	for _, project := range f.projects {
		if project.UserID == ownerID && !project.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProjectStore) Create(_ context.Context, project *model.Project) (*model.Project, error) {
	project.ID = uuid.New()
	project.Status = model.StatusPending
	project.CreatedAt = time.Now()
	f.projects[project.ID] = project
	clone := *project
	return &clone, nil
}

func (f *fakeProjectStore) UpdateDecision(_ context.Context, projectID uuid.UUID, status model.ProjectStatus, approvedBudget int64, approvedAt *time.Time) error {
	project, ok := f.projects[projectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	project.Status = status
	project.ApprovedBudget = approvedBudget
	project.ApprovedAt = approvedAt
	return nil
}

func (f *fakeProjectStore) AppendMilestone(_ context.Context, projectID uuid.UUID, update model.ProgressUpdate, receipt *model.Receipt, newSpent int64) error {
	project, ok := f.projects[projectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if receipt != nil {
		project.Receipts = append(project.Receipts, *receipt)
	}
	project.ProgressUpdates = append(project.ProgressUpdates, update)
	project.SpentBudget = newSpent
	project.Status = model.StatusInProgress
	return nil
}

func (f *fakeProjectStore) Complete(_ context.Context, projectID uuid.UUID, completedAt time.Time) error {
	project, ok := f.projects[projectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	project.Status = model.StatusCompleted
	project.CompletedAt = &completedAt
	return nil
}

func (f *fakeProjectStore) seed(project *model.Project) {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	f.projects[project.ID] = project
}

func testLedger(store *fakeProjectStore) *LedgerService {
	return NewLedgerService(store, zerolog.Nop())
}

func ownerPrincipal(userID uuid.UUID) model.Principal {
	return model.Principal{UserID: userID, Role: model.RoleUser, DepartmentID: uuid.New()}
}

func financePrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleFinance, DepartmentID: uuid.New()}
}

func TestCreateRequest(t *testing.T) {
	ctx := context.Background()
	owner := ownerPrincipal(uuid.New())

	t.Run("applies default deadline", func(t *testing.T) {
		store := newFakeProjectStore()
		now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		ledger := testLedger(store).WithClock(func() time.Time { return now })

		project, err := ledger.CreateRequest(ctx, owner, CreateRequestInput{
			Title:           "Lab Equipment",
			DepartmentID:    uuid.New(),
			RequestedBudget: 10_000_00,
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, project.Status)
		assert.Equal(t, now.Add(30*24*time.Hour), project.Deadline)
		assert.Equal(t, int64(10_000_00), project.RequestedBudget)
		assert.Zero(t, project.ApprovedBudget)
		assert.Zero(t, project.SpentBudget)
	})

	t.Run("rejects second open project for the same owner", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)

		_, err := ledger.CreateRequest(ctx, owner, CreateRequestInput{
			Title:           "First",
			DepartmentID:    uuid.New(),
			RequestedBudget: 500_00,
		})
		require.NoError(t, err)

		_, err = ledger.CreateRequest(ctx, owner, CreateRequestInput{
			Title:           "Second",
			DepartmentID:    uuid.New(),
			RequestedBudget: 500_00,
		})
		assert.ErrorIs(t, err, ErrPolicyViolation)
	})

	t.Run("allows a new project once the previous one is terminal", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		store.seed(&model.Project{
			UserID: owner.UserID,
			Status: model.StatusRejected,
		})

		_, err := ledger.CreateRequest(ctx, owner, CreateRequestInput{
			Title:           "Retry",
			DepartmentID:    uuid.New(),
			RequestedBudget: 500_00,
		})
		assert.NoError(t, err)
	})

	t.Run("validates input", func(t *testing.T) {
		ledger := testLedger(newFakeProjectStore())

		_, err := ledger.CreateRequest(ctx, owner, CreateRequestInput{
			Title:           "   ",
			DepartmentID:    uuid.New(),
			RequestedBudget: 100,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = ledger.CreateRequest(ctx, owner, CreateRequestInput{
			Title:           "Zero budget",
			DepartmentID:    uuid.New(),
			RequestedBudget: 0,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestDecide(t *testing.T) {
	ctx := context.Background()

	seedPending := func(store *fakeProjectStore, requested int64) *model.Project {
		project := &model.Project{
			UserID:          uuid.New(),
			Status:          model.StatusPending,
			RequestedBudget: requested,
		}
		store.seed(project)
		return project
	}

	t.Run("approval falls back to the requested amount", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		pending := seedPending(store, 7_500_00)

		project, err := ledger.Decide(ctx, financePrincipal(), pending.ID, DecideInput{Decision: DecisionApprove})
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, project.Status)
		assert.Equal(t, int64(7_500_00), project.ApprovedBudget)
		require.NotNil(t, project.ApprovedAt)
	})

	t.Run("approval honours an explicit budget", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		pending := seedPending(store, 10_000_00)
		approved := int64(8_000_00)

		project, err := ledger.Decide(ctx, financePrincipal(), pending.ID, DecideInput{
			Decision:       DecisionApprove,
			ApprovedBudget: &approved,
		})
		require.NoError(t, err)
		assert.Equal(t, approved, project.ApprovedBudget)
	})

	t.Run("rejection is terminal", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		pending := seedPending(store, 100_00)

		project, err := ledger.Decide(ctx, financePrincipal(), pending.ID, DecideInput{Decision: DecisionReject})
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, project.Status)

		_, err = ledger.Decide(ctx, financePrincipal(), pending.ID, DecideInput{Decision: DecisionApprove})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("regular users may not decide", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		pending := seedPending(store, 100_00)

		_, err := ledger.Decide(ctx, ownerPrincipal(uuid.New()), pending.ID, DecideInput{Decision: DecisionApprove})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("negative budget is rejected", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		pending := seedPending(store, 100_00)
		negative := int64(-1)

		_, err := ledger.Decide(ctx, financePrincipal(), pending.ID, DecideInput{
			Decision:       DecisionApprove,
			ApprovedBudget: &negative,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown project maps to not found", func(t *testing.T) {
		ledger := testLedger(newFakeProjectStore())

		_, err := ledger.Decide(ctx, financePrincipal(), uuid.New(), DecideInput{Decision: DecisionApprove})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLogMilestone(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	owner := ownerPrincipal(ownerID)

	seedApproved := func(store *fakeProjectStore, approvedBudget int64) *model.Project {
		project := &model.Project{
			UserID:         ownerID,
			Status:         model.StatusApproved,
			ApprovedBudget: approvedBudget,
		}
		store.seed(project)
		return project
	}

	t.Run("first milestone moves the project to in progress", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		approved := seedApproved(store, 8_000_00)

		project, err := ledger.LogMilestone(ctx, owner, approved.ID, MilestoneInput{
			Description: "Procurement started",
			Percentage:  25,
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, project.Status)
		require.Len(t, project.ProgressUpdates, 1)
		assert.Equal(t, 25, project.ProgressUpdates[0].Percentage)
		assert.Nil(t, project.ProgressUpdates[0].ReceiptID)
		assert.Zero(t, project.SpentBudget)
	})

	t.Run("expense appends a receipt and links the update to it", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		approved := seedApproved(store, 8_000_00)

		project, err := ledger.LogMilestone(ctx, owner, approved.ID, MilestoneInput{
			Description: "Invoice paid",
			Percentage:  40,
			Receipt:     &ReceiptInput{Amount: 500_00, URL: "https://receipts/inv-1"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(500_00), project.SpentBudget)
		require.Len(t, project.Receipts, 1)
		require.Len(t, project.ProgressUpdates, 1)
		require.NotNil(t, project.ProgressUpdates[0].ReceiptID)
		assert.Equal(t, project.Receipts[0].ID, *project.ProgressUpdates[0].ReceiptID)
		assert.Equal(t, "Digital Voucher", project.Receipts[0].FileName)
		assert.Equal(t, "application/octet-stream", project.Receipts[0].MimeType)
	})

	t.Run("spending never exceeds the approved budget", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		approved := seedApproved(store, 1_000_00)

		_, err := ledger.LogMilestone(ctx, owner, approved.ID, MilestoneInput{
			Percentage: 10,
			Receipt:    &ReceiptInput{Amount: 1_000_01},
		})
		assert.ErrorIs(t, err, ErrPolicyViolation)

		reloaded, err := store.GetByID(ctx, approved.ID)
		require.NoError(t, err)
		assert.Zero(t, reloaded.SpentBudget)
		assert.Empty(t, reloaded.Receipts)
	})

	t.Run("progress never regresses", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		approved := seedApproved(store, 1_000_00)

		_, err := ledger.LogMilestone(ctx, owner, approved.ID, MilestoneInput{Percentage: 60})
		require.NoError(t, err)

		_, err = ledger.LogMilestone(ctx, owner, approved.ID, MilestoneInput{Percentage: 50})
		assert.ErrorIs(t, err, ErrPolicyViolation)

		_, err = ledger.LogMilestone(ctx, owner, approved.ID, MilestoneInput{Percentage: 60})
		assert.NoError(t, err)
	})

	t.Run("percentage bounds", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		approved := seedApproved(store, 1_000_00)

		_, err := ledger.LogMilestone(ctx, owner, approved.ID, MilestoneInput{Percentage: 101})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = ledger.LogMilestone(ctx, owner, approved.ID, MilestoneInput{Percentage: -1})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("only approved or in-progress projects accept milestones", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		pending := &model.Project{UserID: ownerID, Status: model.StatusPending}
		store.seed(pending)

		_, err := ledger.LogMilestone(ctx, owner, pending.ID, MilestoneInput{Percentage: 10})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("only the owner may log milestones", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		approved := seedApproved(store, 1_000_00)

		_, err := ledger.LogMilestone(ctx, ownerPrincipal(uuid.New()), approved.ID, MilestoneInput{Percentage: 10})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	owner := ownerPrincipal(ownerID)

	t.Run("requires full progress", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		project := &model.Project{
			UserID:         ownerID,
			Status:         model.StatusInProgress,
			ApprovedBudget: 1_000_00,
			ProgressUpdates: []model.ProgressUpdate{
				{ID: uuid.New(), Percentage: 80},
			},
		}
		store.seed(project)

		_, err := ledger.Complete(ctx, owner, project.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("completes at one hundred percent", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		project := &model.Project{
			UserID:         ownerID,
			Status:         model.StatusInProgress,
			ApprovedBudget: 1_000_00,
			ProgressUpdates: []model.ProgressUpdate{
				{ID: uuid.New(), Percentage: 100},
			},
		}
		store.seed(project)

		completed, err := ledger.Complete(ctx, owner, project.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, completed.Status)
		require.NotNil(t, completed.CompletedAt)

		_, err = ledger.Complete(ctx, owner, project.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("only the owner may complete", func(t *testing.T) {
		store := newFakeProjectStore()
		ledger := testLedger(store)
		project := &model.Project{
			UserID: ownerID,
			Status: model.StatusInProgress,
			ProgressUpdates: []model.ProgressUpdate{
				{ID: uuid.New(), Percentage: 100},
			},
		}
		store.seed(project)

		_, err := ledger.Complete(ctx, ownerPrincipal(uuid.New()), project.ID)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestLedgerLifecycleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeProjectStore()

	var mutations int
	ledger := testLedger(store)
	ledger.OnMutation(func() { mutations++ })

	ownerID := uuid.New()
	owner := ownerPrincipal(ownerID)

	created, err := ledger.CreateRequest(ctx, owner, CreateRequestInput{
		Title:           "Campus Network Upgrade",
		DepartmentID:    uuid.New(),
		RequestedBudget: 10_000_00,
	})
	require.NoError(t, err)

	approvedBudget := int64(8_000_00)
	approved, err := ledger.Decide(ctx, financePrincipal(), created.ID, DecideInput{
		Decision:       DecisionApprove,
		ApprovedBudget: &approvedBudget,
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, approved.Status)

	inProgress, err := ledger.LogMilestone(ctx, owner, created.ID, MilestoneInput{
		Description: "Switch hardware delivered",
		Percentage:  50,
		Receipt:     &ReceiptInput{FileName: "invoice.pdf", Amount: 500_00},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, inProgress.Status)
	assert.Equal(t, int64(500_00), inProgress.SpentBudget)

	final, err := ledger.LogMilestone(ctx, owner, created.ID, MilestoneInput{
		Description: "Rollout finished",
		Percentage:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, final.LatestPercentage())

	completed, err := ledger.Complete(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
	assert.Equal(t, int64(500_00), completed.SpentBudget)

	assert.Equal(t, 5, mutations)
}
