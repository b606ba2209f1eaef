package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mereb-hub/finance-hub/internal/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	id,
	title,
	description,
	user_id,
	department_id,
	requested_budget,
	approved_budget,
	spent_budget,
	status,
	deadline,
	created_at,
	approved_at,
	completed_at
`

func (r *ProjectRepository) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).Raw(`
		SELECT ` + projectColumns + `
		FROM projects
		ORDER BY created_at DESC
	`).Scan(&projects).Error
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID).Scan(&projects).Error
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	projects := []model.Project{project}
	if err := r.loadChildren(ctx, projects); err != nil {
		return nil, err
	}
	return &projects[0], nil
}

// HasOpenProject reports whether the owner already has a project that is
// neither COMPLETED nor REJECTED.
func (r *ProjectRepository) HasOpenProject(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM projects
		WHERE user_id = ?
			AND status NOT IN ('COMPLETED', 'REJECTED')
	`, ownerID).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	var saved model.Project
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO projects (
			title,
			description,
			user_id,
			department_id,
			requested_budget,
			approved_budget,
			spent_budget,
			status,
			deadline
		) VALUES (?, ?, ?, ?, ?, 0, 0, 'PENDING', ?)
		RETURNING `+projectColumns,
		project.Title,
		project.Description,
		project.UserID,
		project.DepartmentID,
		project.RequestedBudget,
		project.Deadline,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	saved.Receipts = []model.Receipt{}
	saved.ProgressUpdates = []model.ProgressUpdate{}
	return &saved, nil
}

// UpdateDecision records an approval or rejection. ApprovedAt is nil for
// rejections.
func (r *ProjectRepository) UpdateDecision(
	ctx context.Context,
	projectID uuid.UUID,
	status model.ProjectStatus,
	approvedBudget int64,
	approvedAt *time.Time,
) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE projects
		SET
			status = ?,
			approved_budget = ?,
			approved_at = ?
		WHERE id = ?
	`, status, approvedBudget, approvedAt, projectID).Error
}

// AppendMilestone writes a progress row, its optional receipt, and the
// resulting project fields in one transaction so spent_budget can never
// drift from the receipt sum.
func (r *ProjectRepository) AppendMilestone(
	ctx context.Context,
	projectID uuid.UUID,
	update model.ProgressUpdate,
	receipt *model.Receipt,
	newSpent int64,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if receipt != nil {
			if err := tx.Exec(`
				INSERT INTO receipts (id, project_id, file_name, amount, url, mime_type, recorded_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, receipt.ID, projectID, receipt.FileName, receipt.Amount, receipt.URL, receipt.MimeType, receipt.RecordedAt).Error; err != nil {
				return err
			}
		}

		if err := tx.Exec(`
			INSERT INTO progress_updates (id, project_id, description, percentage, receipt_id, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, update.ID, projectID, update.Description, update.Percentage, update.ReceiptID, update.RecordedAt).Error; err != nil {
			return err
		}

		return tx.Exec(`
			UPDATE projects
			SET spent_budget = ?, status = 'IN_PROGRESS'
			WHERE id = ?
		`, newSpent, projectID).Error
	})
}

func (r *ProjectRepository) Complete(ctx context.Context, projectID uuid.UUID, completedAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE projects
		SET status = 'COMPLETED', completed_at = ?
		WHERE id = ?
	`, completedAt, projectID).Error
}

func (r *ProjectRepository) loadChildren(ctx context.Context, projects []model.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(projects))
	index := make(map[uuid.UUID]int, len(projects))
	for i := range projects {
		ids = append(ids, projects[i].ID)
		index[projects[i].ID] = i
		projects[i].Receipts = []model.Receipt{}
		projects[i].ProgressUpdates = []model.ProgressUpdate{}
	}

	var receipts []model.Receipt
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, project_id, file_name, amount, url, mime_type, recorded_at
		FROM receipts
		WHERE project_id = ANY(?)
		ORDER BY recorded_at ASC, id ASC
	`, ids).Scan(&receipts).Error
	if err != nil {
		return err
	}
	for _, receipt := range receipts {
		if pos, ok := index[receipt.ProjectID]; ok {
			projects[pos].Receipts = append(projects[pos].Receipts, receipt)
		}
	}

	var updates []model.ProgressUpdate
	err = r.db.WithContext(ctx).Raw(`
		SELECT id, project_id, description, percentage, receipt_id, recorded_at
		FROM progress_updates
		WHERE project_id = ANY(?)
		ORDER BY recorded_at ASC, id ASC
	`, ids).Scan(&updates).Error
	if err != nil {
		return err
	}
	for _, update := range updates {
		if pos, ok := index[update.ProjectID]; ok {
			projects[pos].ProgressUpdates = append(projects[pos].ProgressUpdates, update)
		}
	}

	return nil
}
