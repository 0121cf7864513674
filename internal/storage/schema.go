package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all tables. The q_norm index starts non-unique so a
// database holding duplicates can still be opened and cleaned up;
// EnsureIndexes adds the unique one.
func InitSchema(ctx context.Context, db *sql.DB) error {
	steps := []struct {
		name  string
		query string
	}{
		{"faqs", `
		CREATE TABLE IF NOT EXISTS faqs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL DEFAULT '',
			answer TEXT NOT NULL DEFAULT '',
			q_norm TEXT,
			category TEXT NOT NULL DEFAULT 'general',
			tags TEXT NOT NULL DEFAULT '[]',
			source TEXT NOT NULL DEFAULT 'seed',
			created_at INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_faqs_q_norm ON faqs(q_norm);
		`},
		{"faqs_duplicates_backup", `
		CREATE TABLE IF NOT EXISTS faqs_duplicates_backup (
			id INTEGER PRIMARY KEY,
			question TEXT NOT NULL DEFAULT '',
			answer TEXT NOT NULL DEFAULT '',
			q_norm TEXT,
			category TEXT NOT NULL DEFAULT 'general',
			tags TEXT NOT NULL DEFAULT '[]',
			source TEXT NOT NULL DEFAULT 'seed',
			created_at INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL DEFAULT 0,
			backed_up_at INTEGER NOT NULL
		);
		`},
		{"departments", `
		CREATE TABLE IF NOT EXISTS departments (
			dept_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			hod_name TEXT,
			hod_email TEXT,
			hod_phone TEXT,
			hod_profile_url TEXT,
			address TEXT,
			maps_url TEXT,
			notes TEXT,
			source TEXT NOT NULL DEFAULT 'seed',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS department_aliases (
			dept_id TEXT NOT NULL REFERENCES departments(dept_id) ON DELETE CASCADE,
			alias TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (dept_id, alias)
		);
		`},
		{"contacts", `
		CREATE TABLE IF NOT EXISTS contacts (
			role TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		`},
	}

	for _, s := range steps {
		if _, err := db.ExecContext(ctx, s.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.name, err)
		}
	}
	return nil
}

const ensureIndexesSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_faqs_q_norm_unique ON faqs(q_norm);
CREATE INDEX IF NOT EXISTS idx_department_aliases_alias ON department_aliases(alias);
`
