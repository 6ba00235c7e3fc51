package store

import (
	"database/sql"
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// Migrate brings the schema up to schemaVersion. It is safe to call on every
// open.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	stmts := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  identity_key    TEXT PRIMARY KEY,
  title           TEXT NOT NULL,
  company         TEXT NOT NULL,
  location        TEXT,
  country         TEXT NOT NULL,
  seniority       TEXT NOT NULL,
  sector          TEXT NOT NULL,
  description     TEXT,
  requirements    TEXT,
  salary_range    TEXT NOT NULL,
  source_platform TEXT NOT NULL,
  source_url      TEXT NOT NULL DEFAULT '',
  captured_at     INTEGER NOT NULL,
  is_active       INTEGER NOT NULL DEFAULT 1,
  quality_score   INTEGER NOT NULL DEFAULT 0
);`, `
CREATE TABLE IF NOT EXISTS job_skills (
  identity_key TEXT NOT NULL,
  skill_name   TEXT NOT NULL,
  category     TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (identity_key, skill_name)
);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_captured_at ON jobs(captured_at);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_sector ON jobs(sector);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_country ON jobs(country);`,
		`CREATE INDEX IF NOT EXISTS idx_job_skills_skill ON job_skills(skill_name);`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("migrating to v%d: %w", schemaVersion, err)
		}
	}

	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return tx.Commit()
}
