package report

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

// Ensure LogReporter implements model.Reporter.
var _ model.Reporter = (*LogReporter)(nil)

// LogReporter writes run summaries to the given logger as structured messages.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a reporter that logs each run via slog.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs the run counts, one line per rejection reason and one line per
// source platform. Individual rejections go to debug.
// Returns nil (stdout logging does not fail).
func (r *LogReporter) Report(_ context.Context, rep model.RunReport) error {
	r.logger.Info("run report",
		"run_id", rep.RunID,
		"ingested", rep.Ingested,
		"canonical", rep.Canonical,
		"rejected", rep.Rejected,
		"duplicates", rep.Duplicates,
		"failures", rep.Failures,
		"stored", rep.Stored,
		"duration", rep.Duration.Round(time.Millisecond),
	)
	for _, reason := range sortedReasons(rep.Reasons) {
		r.logger.Info("rejections", "run_id", rep.RunID, "reason", reason, "count", rep.Reasons[reason])
	}
	for _, rj := range rep.Rejections {
		r.logger.Debug("rejected record",
			"index", rj.Index,
			"platform", rj.SourcePlatform,
			"url", rj.SourceURL,
			"reason", rj.Reason,
		)
	}
	for _, s := range rep.Sources {
		r.logger.Info("source quality",
			"platform", s.Platform,
			"jobs", s.Jobs,
			"desc_pct", s.DescRate,
			"salary_pct", s.SalaryRate,
			"avg_score", s.AverageScore,
		)
	}
	return nil
}

func sortedReasons(m map[model.RejectReason]int) []model.RejectReason {
	out := make([]model.RejectReason, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
