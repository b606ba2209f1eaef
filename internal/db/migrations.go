package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN
			CREATE TYPE user_role AS ENUM ('SUPER_ADMIN', 'FINANCE', 'USER');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'project_status') THEN
			CREATE TYPE project_status AS ENUM ('PENDING', 'APPROVED', 'REJECTED', 'IN_PROGRESS', 'COMPLETED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS departments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(128) NOT NULL,
		budget_cap BIGINT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(128) NOT NULL,
		email VARCHAR(256) NOT NULL,
		role user_role NOT NULL DEFAULT 'USER',
		department_id UUID NOT NULL REFERENCES departments(id),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users (email);`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		title VARCHAR(256) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		user_id UUID NOT NULL REFERENCES users(id),
		department_id UUID NOT NULL REFERENCES departments(id),
		requested_budget BIGINT NOT NULL,
		approved_budget BIGINT NOT NULL DEFAULT 0,
		spent_budget BIGINT NOT NULL DEFAULT 0,
		status project_status NOT NULL DEFAULT 'PENDING',
		deadline TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		approved_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_projects_department_id ON projects (department_id);`,
	`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects (status);`,
	`CREATE TABLE IF NOT EXISTS receipts (
		id UUID PRIMARY KEY,
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		file_name VARCHAR(256) NOT NULL,
		amount BIGINT NOT NULL CHECK (amount > 0),
		url TEXT NOT NULL DEFAULT '',
		mime_type VARCHAR(128) NOT NULL DEFAULT 'application/octet-stream',
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_receipts_project_id ON receipts (project_id);`,
	`CREATE TABLE IF NOT EXISTS progress_updates (
		id UUID PRIMARY KEY,
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		description TEXT NOT NULL DEFAULT '',
		percentage SMALLINT NOT NULL CHECK (percentage BETWEEN 0 AND 100),
		receipt_id UUID REFERENCES receipts(id),
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_progress_updates_project_id ON progress_updates (project_id);`,
	`CREATE TABLE IF NOT EXISTS dispatch_logs (
		id VARCHAR(64) PRIMARY KEY,
		type VARCHAR(64) NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		recipient VARCHAR(256) NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_dispatch_logs_type ON dispatch_logs (type, timestamp);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
