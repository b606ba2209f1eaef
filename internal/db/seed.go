package db

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// seed inserts the bootstrap department and system administrator on a
// fresh database so the first login is possible.
func seed(db *gorm.DB, log zerolog.Logger) error {
	var userCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM users`).Scan(&userCount).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if userCount > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var deptID string
		if err := tx.Raw(`
			INSERT INTO departments (name, budget_cap)
			VALUES ('Executive Administration', 500000000)
			RETURNING id
		`).Scan(&deptID).Error; err != nil {
			return fmt.Errorf("seed department: %w", err)
		}

		if err := tx.Exec(`
			INSERT INTO users (name, email, role, department_id, active)
			VALUES ('System Admin', 'admin@system.com', 'SUPER_ADMIN', ?, TRUE)
		`, deptID).Error; err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}

		log.Info().Str("department_id", deptID).Msg("seeded initial department and admin user")
		return nil
	})
}
