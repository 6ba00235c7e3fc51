package model

import (
	"context"
	"time"
)

// Sentinel and default values used across the canonical set.
const (
	CountryUnknown     = "Latam/Remote"
	SectorOther        = "Other"
	SalaryNotDisclosed = "Not disclosed"
)

// Seniority tiers.
const (
	SeniorityJunior = "Junior"
	SeniorityMid    = "Mid"
	SenioritySenior = "Senior"
)

// RawRecord is a posting as captured from a source. No field is guaranteed to
// be present or well formed; Description and Requirements may carry markup.
type RawRecord struct {
	Title          string
	Company        string
	Location       string
	Description    string
	Requirements   string
	SalaryRange    string
	SourcePlatform string
	SourceURL      string
	NativeID       string
	CapturedAt     time.Time

	// Defects names the fields the source had to drop or coerce because
	// they were malformed (wrong JSON type, unparseable timestamp).
	Defects []string
}

// CanonicalJob is the normalized, classified, deduplicated record. Empty
// strings stand for null on the nullable text fields.
type CanonicalJob struct {
	IdentityKey    string
	Title          string
	Company        string
	Location       string // nullable
	Country        string // gazetteer value or CountryUnknown
	Seniority      string
	Sector         string // sector name or SectorOther
	Description    string // nullable
	Requirements   string // nullable
	SalaryRange    string // free text or SalaryNotDisclosed
	SourcePlatform string
	SourceURL      string
	CapturedAt     time.Time
	IsActive       bool
	Skills         []string // sorted, unique, canonical taxonomy names
	QualityScore   int      // 0..100
}

// HasSalary reports whether the posting discloses a salary.
func (j CanonicalJob) HasSalary() bool {
	return j.SalaryRange != "" && j.SalaryRange != SalaryNotDisclosed
}

// RecordSource yields raw records from one place (a scrape dump, a feed).
type RecordSource interface {
	Name() string
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// JobStore persists canonical jobs with upsert-by-key semantics.
type JobStore interface {
	UpsertJobs(ctx context.Context, jobs []CanonicalJob) (int, error)
	Purge(ctx context.Context, olderThan time.Duration) (int64, error)
	IsEmpty(ctx context.Context) (bool, error)
}

// Reporter receives the summary of a pipeline run.
type Reporter interface {
	Report(ctx context.Context, r RunReport) error
}
