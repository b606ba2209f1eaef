package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mereb-hub/finance-hub/internal/model"
)

// ProjectStore is the persistence contract the ledger mutates through.
type ProjectStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	HasOpenProject(ctx context.Context, ownerID uuid.UUID) (bool, error)
	Create(ctx context.Context, project *model.Project) (*model.Project, error)
	UpdateDecision(ctx context.Context, projectID uuid.UUID, status model.ProjectStatus, approvedBudget int64, approvedAt *time.Time) error
	AppendMilestone(ctx context.Context, projectID uuid.UUID, update model.ProgressUpdate, receipt *model.Receipt, newSpent int64) error
	Complete(ctx context.Context, projectID uuid.UUID, completedAt time.Time) error
}

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// LedgerService owns the project state machine and budget bookkeeping.
// It is the only writer of project status and budget fields.
type LedgerService struct {
	projects   ProjectStore
	log        zerolog.Logger
	now        func() time.Time
	onMutation func()
}

func NewLedgerService(projects ProjectStore, log zerolog.Logger) *LedgerService {
	return &LedgerService{
		projects: projects,
		log:      log,
		now:      time.Now,
	}
}

// OnMutation registers a hook invoked after every successful ledger
// mutation, once the write has been persisted. The report dispatcher
// hangs its reactive trigger here.
func (s *LedgerService) OnMutation(fn func()) {
	s.onMutation = fn
}

// WithClock overrides the time source; used by tests.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

type CreateRequestInput struct {
	Title           string
	Description     string
	DepartmentID    uuid.UUID
	RequestedBudget int64
	Deadline        *time.Time
}

func (s *LedgerService) CreateRequest(ctx context.Context, principal model.Principal, input CreateRequestInput) (*model.Project, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.RequestedBudget <= 0 {
		return nil, fmt.Errorf("%w: requested budget must be positive", ErrInvalidInput)
	}
	if input.DepartmentID == uuid.Nil {
		return nil, fmt.Errorf("%w: department is required", ErrInvalidInput)
	}

	open, err := s.projects.HasOpenProject(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, fmt.Errorf("%w: owner already has an open project", ErrPolicyViolation)
	}

	deadline := s.now().Add(model.DefaultDeadlineDays * 24 * time.Hour)
	if input.Deadline != nil {
		deadline = *input.Deadline
	}

	project, err := s.projects.Create(ctx, &model.Project{
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		UserID:          principal.UserID,
		DepartmentID:    input.DepartmentID,
		RequestedBudget: input.RequestedBudget,
		Deadline:        deadline,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("project_id", project.ID.String()).
		Str("owner_id", principal.UserID.String()).
		Int64("requested_budget", project.RequestedBudget).
		Msg("project request created")
	s.notifyMutation()
	return project, nil
}

type DecideInput struct {
	Decision       Decision
	ApprovedBudget *int64
}

// Decide approves or rejects a PENDING project. Approval falls back to
// the requested amount when no budget is supplied.
func (s *LedgerService) Decide(ctx context.Context, principal model.Principal, projectID uuid.UUID, input DecideInput) (*model.Project, error) {
	if !principal.IsSuperAdmin() && !principal.IsFinance() {
		return nil, fmt.Errorf("%w: only finance or admin may decide requests", ErrPermissionDenied)
	}

	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: cannot decide a %s project", ErrInvalidTransition, project.Status)
	}

	switch input.Decision {
	case DecisionApprove:
		budget := project.RequestedBudget
		if input.ApprovedBudget != nil {
			if *input.ApprovedBudget < 0 {
				return nil, fmt.Errorf("%w: approved budget must be non-negative", ErrInvalidInput)
			}
			budget = *input.ApprovedBudget
		}
		approvedAt := s.now()
		if err := s.projects.UpdateDecision(ctx, projectID, model.StatusApproved, budget, &approvedAt); err != nil {
			return nil, err
		}
		s.log.Info().
			Str("project_id", projectID.String()).
			Int64("approved_budget", budget).
			Msg("project approved")

	case DecisionReject:
		if err := s.projects.UpdateDecision(ctx, projectID, model.StatusRejected, 0, nil); err != nil {
			return nil, err
		}
		s.log.Info().Str("project_id", projectID.String()).Msg("project rejected")

	default:
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidInput, input.Decision)
	}

	s.notifyMutation()
	return s.load(ctx, projectID)
}

type MilestoneInput struct {
	Description string
	Percentage  int
	Receipt     *ReceiptInput
}

type ReceiptInput struct {
	FileName string
	Amount   int64
	URL      string
	MimeType string
}

// LogMilestone appends a progress update, forcing IN_PROGRESS, and when
// an expense is declared also appends the receipt, adds its amount to
// spent_budget and links the update to it.
func (s *LedgerService) LogMilestone(ctx context.Context, principal model.Principal, projectID uuid.UUID, input MilestoneInput) (*model.Project, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != principal.UserID {
		return nil, fmt.Errorf("%w: only the project owner may log milestones", ErrPermissionDenied)
	}
	if project.Status != model.StatusApproved && project.Status != model.StatusInProgress {
		return nil, fmt.Errorf("%w: cannot log a milestone on a %s project", ErrInvalidTransition, project.Status)
	}
	if input.Percentage < 0 || input.Percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be within [0,100]", ErrInvalidInput)
	}
	if input.Percentage < project.LatestPercentage() {
		return nil, fmt.Errorf("%w: progress cannot regress below %d%%", ErrPolicyViolation, project.LatestPercentage())
	}

	now := s.now()
	update := model.ProgressUpdate{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Description: input.Description,
		Percentage:  input.Percentage,
		RecordedAt:  now,
	}

	var receipt *model.Receipt
	newSpent := project.SpentBudget
	if input.Receipt != nil && input.Receipt.Amount > 0 {
		newSpent += input.Receipt.Amount
		if newSpent > project.ApprovedBudget {
			return nil, fmt.Errorf("%w: expense would exceed the approved budget", ErrPolicyViolation)
		}
		fileName := input.Receipt.FileName
		if fileName == "" {
			fileName = "Digital Voucher"
		}
		mimeType := input.Receipt.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		receipt = &model.Receipt{
			ID:         uuid.New(),
			ProjectID:  projectID,
			FileName:   fileName,
			Amount:     input.Receipt.Amount,
			URL:        input.Receipt.URL,
			MimeType:   mimeType,
			RecordedAt: now,
		}
		update.ReceiptID = &receipt.ID
	}

	if err := s.projects.AppendMilestone(ctx, projectID, update, receipt, newSpent); err != nil {
		return nil, err
	}

	event := s.log.Info().
		Str("project_id", projectID.String()).
		Int("percentage", input.Percentage)
	if receipt != nil {
		event = event.Int64("receipt_amount", receipt.Amount).Int64("spent_budget", newSpent)
	}
	event.Msg("milestone logged")

	s.notifyMutation()
	return s.load(ctx, projectID)
}

// Complete closes a project whose latest milestone reached 100%.
func (s *LedgerService) Complete(ctx context.Context, principal model.Principal, projectID uuid.UUID) (*model.Project, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != principal.UserID {
		return nil, fmt.Errorf("%w: only the project owner may complete it", ErrPermissionDenied)
	}
	if project.Status != model.StatusInProgress {
		return nil, fmt.Errorf("%w: cannot complete a %s project", ErrInvalidTransition, project.Status)
	}
	if project.LatestPercentage() != 100 {
		return nil, fmt.Errorf("%w: latest progress is %d%%, 100%% required", ErrInvalidTransition, project.LatestPercentage())
	}

	if err := s.projects.Complete(ctx, projectID, s.now()); err != nil {
		return nil, err
	}
	s.log.Info().Str("project_id", projectID.String()).Msg("project completed")

	s.notifyMutation()
	return s.load(ctx, projectID)
}

func (s *LedgerService) load(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *LedgerService) notifyMutation() {
	if s.onMutation != nil {
		s.onMutation()
	}
}
