package model

import "time"

// Rejection records one record that did not reach the canonical set.
type Rejection struct {
	Index          int // position in the ingested batch
	SourcePlatform string
	SourceURL      string
	Reason         RejectReason
}

// SourceQuality aggregates data completeness for one source platform.
type SourceQuality struct {
	Platform     string
	Jobs         int
	DescRate     float64 // percent of jobs with a description
	SalaryRate   float64 // percent of jobs with a disclosed salary
	AverageScore float64
}

// RunReport is what the caller of a pipeline run gets back: counts, the
// reasons behind every rejection, and per-source quality.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Ingested   int
	Canonical  int
	Rejected   int
	Duplicates int // records folded into another by the merge
	Failures   int // records that degraded after a stage failure
	Stored     int
	Reasons    map[RejectReason]int
	Rejections []Rejection
	Sources    []SourceQuality
}
