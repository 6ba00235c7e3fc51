package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobpipe/internal/model"
)

// Runner owns one end-to-end run: fetch → process → store → report.
type Runner struct {
	pipeline *Pipeline
	source   model.RecordSource
	store    model.JobStore
	reporter model.Reporter
	logger   *slog.Logger
}

// NewRunner creates a runner wired with all its dependencies.
func NewRunner(
	p *Pipeline,
	source model.RecordSource,
	store model.JobStore,
	reporter model.Reporter,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		pipeline: p,
		source:   source,
		store:    store,
		reporter: reporter,
		logger:   logger,
	}
}

// Run fetches raw records, processes them and upserts the merged canonical
// set. Nothing reaches the store before the merge has finished, and a failed
// fetch stores nothing.
func (r *Runner) Run(ctx context.Context) (model.RunReport, error) {
	raws, err := r.source.Fetch(ctx)
	if err != nil {
		return model.RunReport{}, fmt.Errorf("run %s: fetching: %w", r.source.Name(), err)
	}

	res, err := r.pipeline.Process(ctx, raws)
	if err != nil {
		return model.RunReport{}, fmt.Errorf("run %s: processing: %w", r.source.Name(), err)
	}

	stored, err := r.store.UpsertJobs(ctx, res.Jobs)
	if err != nil {
		return res.Report, fmt.Errorf("run %s: storing: %w", r.source.Name(), err)
	}
	res.Report.Stored = stored

	if err := r.reporter.Report(ctx, res.Report); err != nil {
		return res.Report, fmt.Errorf("run %s: reporting: %w", r.source.Name(), err)
	}

	r.logger.Info("pipeline run complete",
		"run_id", res.Report.RunID,
		"source", r.source.Name(),
		"ingested", res.Report.Ingested,
		"canonical", res.Report.Canonical,
		"rejected", res.Report.Rejected,
		"duplicates", res.Report.Duplicates,
		"failures", res.Report.Failures,
		"stored", stored,
	)
	return res.Report, nil
}
