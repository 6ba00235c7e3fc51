package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/amishk599/jobpipe/internal/model"
)

// ErrLocked is returned when another process holds the store's write lock.
var ErrLocked = errors.New("store is locked by another run")

// Ensure SQLiteStore implements model.JobStore.
var _ model.JobStore = (*SQLiteStore)(nil)

// SQLiteStore persists canonical jobs and their skills in SQLite.
type SQLiteStore struct {
	db         *sql.DB
	lock       *flock.Flock // nil for read-only handles
	categories map[string]string
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath for writing.
// It takes an exclusive lock on dbPath+".lock" so two runs never write the
// same store. categories maps skill names to their taxonomy category.
func NewSQLiteStore(dbPath string, categories map[string]string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", dbPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", dbPath, ErrLocked)
	}

	s, err := open(dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	if err := Migrate(s.db); err != nil {
		s.db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("migrating sqlite db: %w", err)
	}
	s.lock = lock
	s.categories = categories
	return s, nil
}

// OpenReader opens an existing store for the read-only reporting commands.
// It does not take the write lock.
func OpenReader(dbPath string) (*SQLiteStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	s, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := Migrate(s.db); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("migrating sqlite db: %w", err)
	}
	return s, nil
}

func open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection keeps SQLite writes serialized.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

const upsertJob = `
INSERT INTO jobs (
  identity_key, title, company, location, country, seniority, sector,
  description, requirements, salary_range, source_platform, source_url,
  captured_at, is_active, quality_score
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(identity_key) DO UPDATE SET
  title = excluded.title,
  company = excluded.company,
  location = excluded.location,
  country = excluded.country,
  seniority = excluded.seniority,
  sector = excluded.sector,
  description = excluded.description,
  requirements = excluded.requirements,
  salary_range = excluded.salary_range,
  source_platform = excluded.source_platform,
  source_url = excluded.source_url,
  captured_at = excluded.captured_at,
  is_active = excluded.is_active,
  quality_score = excluded.quality_score
WHERE excluded.captured_at >= jobs.captured_at`

// UpsertJobs writes the batch in one transaction. A stored row is only
// replaced by a version captured at the same time or later; skills are
// accumulated per (identity_key, skill_name). Returns the number of job rows
// inserted or updated.
func (s *SQLiteStore) UpsertJobs(ctx context.Context, jobs []model.CanonicalJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	jobStmt, err := tx.PrepareContext(ctx, upsertJob)
	if err != nil {
		return 0, fmt.Errorf("preparing job upsert: %w", err)
	}
	defer jobStmt.Close()

	skillStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO job_skills (identity_key, skill_name, category) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing skill insert: %w", err)
	}
	defer skillStmt.Close()

	written := 0
	for _, j := range jobs {
		res, err := jobStmt.ExecContext(ctx,
			j.IdentityKey, j.Title, j.Company, nullable(j.Location), j.Country,
			j.Seniority, j.Sector, nullable(j.Description), nullable(j.Requirements),
			j.SalaryRange, j.SourcePlatform, j.SourceURL,
			j.CapturedAt.UTC().UnixMilli(), boolInt(j.IsActive), j.QualityScore,
		)
		if err != nil {
			return 0, fmt.Errorf("upserting job %s: %w", j.IdentityKey, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			written++
		}
		for _, sk := range j.Skills {
			if _, err := skillStmt.ExecContext(ctx, j.IdentityKey, sk, s.categories[sk]); err != nil {
				return 0, fmt.Errorf("inserting skill %s for %s: %w", sk, j.IdentityKey, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return written, nil
}

// Purge deletes jobs captured before now-olderThan together with their
// skills, and returns the number of jobs removed.
func (s *SQLiteStore) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin purge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM job_skills WHERE identity_key IN (SELECT identity_key FROM jobs WHERE captured_at < ?)`,
		cutoff); err != nil {
		return 0, fmt.Errorf("purging skills older than %v: %w", olderThan, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE captured_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging jobs older than %v: %w", olderThan, err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purge: %w", err)
	}
	return n, nil
}

// IsEmpty returns true if the jobs table has no entries.
func (s *SQLiteStore) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		return false, fmt.Errorf("checking if store is empty: %w", err)
	}
	return count == 0, nil
}

// Close closes the underlying database connection and releases the lock.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if uerr := s.lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("releasing store lock: %w", uerr)
		}
	}
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
