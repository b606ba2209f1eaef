package model

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	StatusPending    ProjectStatus = "PENDING"
	StatusApproved   ProjectStatus = "APPROVED"
	StatusRejected   ProjectStatus = "REJECTED"
	StatusInProgress ProjectStatus = "IN_PROGRESS"
	StatusCompleted  ProjectStatus = "COMPLETED"
)

// Terminal reports whether no further transition is permitted.
func (s ProjectStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// DefaultDeadlineDays is applied when a request omits its deadline.
const DefaultDeadlineDays = 30

// Project is the central entity. All monetary amounts are minor units
// (cents). SpentBudget is mutated only as a side effect of appending a
// receipt and always equals the sum of receipt amounts.
type Project struct {
	ID              uuid.UUID
	Title           string
	Description     string
	UserID          uuid.UUID
	DepartmentID    uuid.UUID
	RequestedBudget int64
	ApprovedBudget  int64
	SpentBudget     int64
	Status          ProjectStatus
	Deadline        time.Time
	CreatedAt       time.Time
	ApprovedAt      *time.Time
	CompletedAt     *time.Time

	Receipts        []Receipt        `gorm:"-"`
	ProgressUpdates []ProgressUpdate `gorm:"-"`
}

// Receipt is an expense record appended alongside a milestone. Immutable
// once appended. URL carries an external link or an embedded payload.
type Receipt struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	FileName   string
	Amount     int64
	URL        string
	MimeType   string
	RecordedAt time.Time
}

// ProgressUpdate is a milestone record, optionally linked to the receipt
// appended in the same operation.
type ProgressUpdate struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Description string
	Percentage  int
	ReceiptID   *uuid.UUID
	RecordedAt  time.Time
}

// LatestPercentage returns the most recently recorded progress
// percentage, or zero when no milestone has been logged.
func (p *Project) LatestPercentage() int {
	if len(p.ProgressUpdates) == 0 {
		return 0
	}
	return p.ProgressUpdates[len(p.ProgressUpdates)-1].Percentage
}

// Overdue reports whether the project is past its deadline and still in
// a non-terminal state.
func (p *Project) Overdue(now time.Time) bool {
	return !p.Status.Terminal() && now.After(p.Deadline)
}
