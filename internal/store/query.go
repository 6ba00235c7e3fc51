package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

// ListOptions filters ListJobs. Zero values mean no filter.
type ListOptions struct {
	Sector    string
	Country   string
	Seniority string
	Skill     string
	Limit     int
}

// ListJobs returns stored jobs, most recently captured first, with skills.
func (s *SQLiteStore) ListJobs(ctx context.Context, opts ListOptions) ([]model.CanonicalJob, error) {
	var (
		where []string
		args  []any
	)
	if opts.Sector != "" {
		where = append(where, "sector = ?")
		args = append(args, opts.Sector)
	}
	if opts.Country != "" {
		where = append(where, "country = ?")
		args = append(args, opts.Country)
	}
	if opts.Seniority != "" {
		where = append(where, "seniority = ?")
		args = append(args, opts.Seniority)
	}
	if opts.Skill != "" {
		where = append(where, "identity_key IN (SELECT identity_key FROM job_skills WHERE skill_name = ?)")
		args = append(args, opts.Skill)
	}

	q := `SELECT identity_key, title, company, location, country, seniority, sector,
  description, requirements, salary_range, source_platform, source_url,
  captured_at, is_active, quality_score
FROM jobs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY captured_at DESC, identity_key"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var (
		jobs  []model.CanonicalJob
		index = make(map[string]int)
	)
	for rows.Next() {
		var (
			j                        model.CanonicalJob
			loc, desc, reqs          sql.NullString
			capturedMillis, isActive int64
		)
		if err := rows.Scan(
			&j.IdentityKey, &j.Title, &j.Company, &loc, &j.Country, &j.Seniority, &j.Sector,
			&desc, &reqs, &j.SalaryRange, &j.SourcePlatform, &j.SourceURL,
			&capturedMillis, &isActive, &j.QualityScore,
		); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		j.Location = loc.String
		j.Description = desc.String
		j.Requirements = reqs.String
		j.CapturedAt = time.UnixMilli(capturedMillis).UTC()
		j.IsActive = isActive != 0
		index[j.IdentityKey] = len(jobs)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	if err := s.attachSkills(ctx, jobs, index); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *SQLiteStore) attachSkills(ctx context.Context, jobs []model.CanonicalJob, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity_key, skill_name FROM job_skills ORDER BY identity_key, skill_name`)
	if err != nil {
		return fmt.Errorf("listing skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, skill string
		if err := rows.Scan(&key, &skill); err != nil {
			return fmt.Errorf("scanning skill: %w", err)
		}
		if i, ok := index[key]; ok {
			jobs[i].Skills = append(jobs[i].Skills, skill)
		}
	}
	return rows.Err()
}

// Count is one row of a grouped aggregate.
type Count struct {
	Name     string
	Category string // skills only
	Jobs     int
}

// Stats holds the aggregate views over the stored corpus.
type Stats struct {
	Total     int
	Active    int
	Sectors   []Count // descending by jobs
	Countries []Count // descending by jobs
	TopSkills []Count // descending by jobs, at most topSkills
	Platforms []model.SourceQuality
}

const topSkills = 15

// Stats computes sector distribution, jobs by country, top skills and data
// quality per platform.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM jobs`).Scan(&st.Total, &st.Active); err != nil {
		return Stats{}, fmt.Errorf("counting jobs: %w", err)
	}

	var err error
	if st.Sectors, err = s.counts(ctx,
		`SELECT sector, '', COUNT(*) AS n FROM jobs GROUP BY sector ORDER BY n DESC, sector`); err != nil {
		return Stats{}, fmt.Errorf("sector distribution: %w", err)
	}
	if st.Countries, err = s.counts(ctx,
		`SELECT country, '', COUNT(*) AS n FROM jobs GROUP BY country ORDER BY n DESC, country`); err != nil {
		return Stats{}, fmt.Errorf("jobs by country: %w", err)
	}
	if st.TopSkills, err = s.counts(ctx, fmt.Sprintf(
		`SELECT skill_name, MAX(category), COUNT(*) AS n FROM job_skills
GROUP BY skill_name ORDER BY n DESC, skill_name LIMIT %d`, topSkills)); err != nil {
		return Stats{}, fmt.Errorf("top skills: %w", err)
	}
	if st.Platforms, err = s.platformQuality(ctx); err != nil {
		return Stats{}, fmt.Errorf("platform quality: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) counts(ctx context.Context, q string) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Name, &c.Category, &c.Jobs); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) platformQuality(ctx context.Context) ([]model.SourceQuality, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source_platform,
  COUNT(*),
  100.0 * SUM(CASE WHEN description IS NOT NULL THEN 1 ELSE 0 END) / COUNT(*),
  100.0 * SUM(CASE WHEN salary_range != ? THEN 1 ELSE 0 END) / COUNT(*),
  AVG(quality_score)
FROM jobs
GROUP BY source_platform
ORDER BY source_platform`, model.SalaryNotDisclosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SourceQuality
	for rows.Next() {
		var q model.SourceQuality
		if err := rows.Scan(&q.Platform, &q.Jobs, &q.DescRate, &q.SalaryRate, &q.AverageScore); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
