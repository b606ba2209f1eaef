package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mereb-hub/finance-hub/internal/model"
)

type DispatchLogRepository struct {
	db *gorm.DB
}

func NewDispatchLogRepository(db *gorm.DB) *DispatchLogRepository {
	return &DispatchLogRepository{db: db}
}

// FindForMonth returns the dispatch log entry for the month, or nil when
// none exists yet.
func (r *DispatchLogRepository) FindForMonth(ctx context.Context, logType, monthKey string) (*model.DispatchLogEntry, error) {
	var entry model.DispatchLogEntry
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, type, timestamp, recipient
		FROM dispatch_logs
		WHERE type = ? AND id = ?
		LIMIT 1
	`, logType, model.DispatchLogID(monthKey)).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == "" {
		return nil, nil
	}
	return &entry, nil
}

// Append inserts the entry atomically; the month-keyed primary key plus
// ON CONFLICT DO NOTHING makes concurrent evaluations race-free. Returns
// false when another session already wrote the row.
func (r *DispatchLogRepository) Append(ctx context.Context, entry model.DispatchLogEntry) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO dispatch_logs (id, type, timestamp, recipient)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.Type, entry.Timestamp, entry.Recipient)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Latest returns the most recent entry of the given type, or nil when
// the system is still awaiting its first successful cycle.
func (r *DispatchLogRepository) Latest(ctx context.Context, logType string) (*model.DispatchLogEntry, error) {
	var entry model.DispatchLogEntry
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, type, timestamp, recipient
		FROM dispatch_logs
		WHERE type = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, logType).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == "" {
		return nil, nil
	}
	return &entry, nil
}
