// Package pipeline turns raw postings into the canonical job set.
//
// A batch goes through two phases. The streaming phase runs per record and in
// parallel: sanitize, split title and company, assign the identity key, tag
// skills and sector. After a barrier the batch phase resolves country and
// seniority, then merges records that share a key.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobpipe/internal/geo"
	"github.com/amishk599/jobpipe/internal/identity"
	"github.com/amishk599/jobpipe/internal/merge"
	"github.com/amishk599/jobpipe/internal/model"
	"github.com/amishk599/jobpipe/internal/sanitize"
	"github.com/amishk599/jobpipe/internal/sector"
	"github.com/amishk599/jobpipe/internal/seniority"
	"github.com/amishk599/jobpipe/internal/skills"
	"github.com/amishk599/jobpipe/internal/taxonomy"
	"github.com/amishk599/jobpipe/internal/textmatch"
)

// Options tunes a Pipeline.
type Options struct {
	// Workers bounds the streaming phase. Zero means GOMAXPROCS.
	Workers int
}

// Result is the outcome of one batch.
type Result struct {
	Jobs   []model.CanonicalJob
	Report model.RunReport
}

// record is one raw posting on its way through the stages.
type record struct {
	index     int
	raw       model.RawRecord
	job       model.CanonicalJob
	nativeID  string
	rejection *model.RejectError
	failed    bool
}

type stage struct {
	name string
	run  func(*record) error
}

// Pipeline is safe for concurrent use; it holds only compiled reference data.
type Pipeline struct {
	splitter  *identity.Splitter
	skills    *skills.Extractor
	sectors   *sector.Classifier
	geo       *geo.Resolver
	seniority *seniority.Resolver
	salaryNA  []textmatch.Phrase
	defTier   string
	workers   int
	logger    *slog.Logger

	streaming []stage
	batch     []stage
}

// New compiles tax into a pipeline. It refuses to start without valid
// reference data: every record would otherwise classify as Other/unknown.
func New(tax *taxonomy.Taxonomy, opts Options, logger *slog.Logger) (*Pipeline, error) {
	if err := tax.Validate(); err != nil {
		return nil, fmt.Errorf("new pipeline: %w", err)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pipeline{
		splitter:  identity.NewSplitter(tax.TitleSeparators, tax.CompanyPlaceholders),
		skills:    skills.NewExtractor(tax),
		sectors:   sector.NewClassifier(tax),
		geo:       geo.NewResolver(tax),
		seniority: seniority.NewResolver(tax),
		salaryNA:  textmatch.CompileAll(tax.SalaryPlaceholders),
		defTier:   tax.DefaultSeniority,
		workers:   workers,
		logger:    logger,
	}
	p.streaming = []stage{
		{"sanitize", p.sanitizeStage},
		{"identify", p.identifyStage},
		{"skills", p.skillsStage},
		{"sector", p.sectorStage},
	}
	p.batch = []stage{
		{"country", p.countryStage},
		{"seniority", p.seniorityStage},
	}
	return p, nil
}

// Process runs a batch. Records are never dropped silently: each one ends up
// canonical, folded into a duplicate, or listed in the report's rejections.
// The only error is ctx cancellation.
func (p *Pipeline) Process(ctx context.Context, raws []model.RawRecord) (Result, error) {
	started := time.Now()
	recs := make([]*record, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range raws {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := p.runStages(newRecord(i, raws[i], p.defTier), p.streaming)
			p.checkMandatory(rec)
			recs[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("streaming phase: %w", err)
	}

	report := model.RunReport{
		RunID:     newRunID(),
		StartedAt: started,
		Ingested:  len(raws),
		Reasons:   make(map[model.RejectReason]int),
	}

	accepted := make([]model.CanonicalJob, 0, len(recs))
	for _, rec := range recs {
		if rec.rejection == nil {
			p.runStages(rec, p.batch)
		}
		if rec.failed || len(rec.raw.Defects) > 0 {
			report.Failures++
		}
		if rec.rejection != nil {
			report.Rejected++
			report.Reasons[rec.rejection.Reason]++
			report.Rejections = append(report.Rejections, model.Rejection{
				Index:          rec.index,
				SourcePlatform: rec.raw.SourcePlatform,
				SourceURL:      rec.raw.SourceURL,
				Reason:         rec.rejection.Reason,
			})
			p.logger.Debug("record rejected",
				"index", rec.index,
				"platform", rec.raw.SourcePlatform,
				"url", rec.raw.SourceURL,
				"reason", rec.rejection.Reason,
			)
			continue
		}
		accepted = append(accepted, rec.job)
	}

	jobs := merge.Merge(accepted)
	report.Canonical = len(jobs)
	report.Duplicates = len(accepted) - len(jobs)
	report.Sources = merge.SourceQuality(jobs)
	report.Duration = time.Since(started)

	return Result{Jobs: jobs, Report: report}, nil
}

func newRecord(i int, raw model.RawRecord, tier string) *record {
	return &record{
		index:    i,
		raw:      raw,
		nativeID: raw.NativeID,
		job: model.CanonicalJob{
			Country:     model.CountryUnknown,
			Seniority:   tier,
			Sector:      model.SectorOther,
			SalaryRange: model.SalaryNotDisclosed,
			CapturedAt:  raw.CapturedAt,
			IsActive:    true,
		},
	}
}

// runStages applies stages in order until the record is rejected. A panicking
// stage marks the record failed and leaves the fields it owns at their
// defaults; later stages still run.
func (p *Pipeline) runStages(rec *record, stages []stage) *record {
	for _, st := range stages {
		if rec.rejection != nil {
			return rec
		}
		err := p.guard(rec, st)
		var rej *model.RejectError
		if errors.As(err, &rej) {
			rec.rejection = rej
		}
	}
	return rec
}

func (p *Pipeline) guard(rec *record, st stage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rec.failed = true
			p.logger.Warn("stage failed, record degraded",
				"stage", st.name,
				"index", rec.index,
				"url", rec.raw.SourceURL,
				"panic", r,
			)
			err = nil
		}
	}()
	return st.run(rec)
}

// checkMandatory re-checks what a degraded record may have skipped: a title,
// a real company and an identity key.
func (p *Pipeline) checkMandatory(rec *record) {
	if rec.rejection != nil {
		return
	}
	j := &rec.job
	switch {
	case strings.TrimSpace(j.Title) == "":
		rec.rejection = &model.RejectError{Reason: model.ReasonMissingTitle, Field: "title"}
	case p.splitter.IsPlaceholder(j.Company):
		rec.rejection = &model.RejectError{Reason: model.ReasonMissingCompany, Field: "company"}
	case j.IdentityKey == "":
		j.IdentityKey = identity.KeyFor(j.SourcePlatform, rec.nativeID, j.Title, j.Company, j.Location)
	}
}

func (p *Pipeline) sanitizeStage(rec *record) error {
	raw := rec.raw
	j := &rec.job
	j.Title = sanitize.Title(raw.Title)
	j.Company = sanitize.Plain(raw.Company)
	j.Location = sanitize.Plain(raw.Location)
	j.Description = sanitize.Markup(raw.Description)
	j.Requirements = sanitize.Markup(raw.Requirements)
	j.SalaryRange = p.normalizeSalary(sanitize.Markup(raw.SalaryRange))
	j.SourcePlatform = sanitize.Plain(raw.SourcePlatform)
	j.SourceURL = strings.TrimSpace(raw.SourceURL)
	rec.nativeID = sanitize.Plain(raw.NativeID)

	if j.Title == "" {
		return &model.RejectError{Reason: model.ReasonMissingTitle, Field: "title"}
	}
	return nil
}

func (p *Pipeline) identifyStage(rec *record) error {
	j := &rec.job
	j.Title, j.Company = p.splitter.Split(j.Title, j.Company)
	if p.splitter.IsPlaceholder(j.Company) {
		return &model.RejectError{Reason: model.ReasonMissingCompany, Field: "company"}
	}
	j.IdentityKey = identity.KeyFor(j.SourcePlatform, rec.nativeID, j.Title, j.Company, j.Location)
	return nil
}

func (p *Pipeline) skillsStage(rec *record) error {
	j := &rec.job
	j.Skills = p.skills.Extract(j.Title + " " + j.Description + " " + j.Requirements)
	return nil
}

func (p *Pipeline) sectorStage(rec *record) error {
	j := &rec.job
	j.Sector = p.sectors.Classify(j.Title, j.Description, j.Company)
	return nil
}

func (p *Pipeline) countryStage(rec *record) error {
	j := &rec.job
	j.Country = p.geo.Resolve(j.SourceURL, j.Location, j.Description)
	return nil
}

func (p *Pipeline) seniorityStage(rec *record) error {
	j := &rec.job
	j.Seniority = p.seniority.Resolve(j.Title)
	return nil
}

// normalizeSalary maps blank and "to be agreed" style values to
// model.SalaryNotDisclosed.
func (p *Pipeline) normalizeSalary(s string) string {
	if s == "" {
		return model.SalaryNotDisclosed
	}
	lowered := textmatch.Lower(s)
	for _, ph := range p.salaryNA {
		if ph.In(lowered) {
			return model.SalaryNotDisclosed
		}
	}
	return s
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
