// Package export writes the stored corpus to an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/amishk599/jobpipe/internal/model"
	"github.com/amishk599/jobpipe/internal/store"
)

// Reader is the read side of the store the export needs.
type Reader interface {
	ListJobs(ctx context.Context, opts store.ListOptions) ([]model.CanonicalJob, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// Service produces XLSX bytes for exports.
type Service struct {
	reader Reader
	logger *slog.Logger
}

func NewService(reader Reader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reader: reader, logger: logger}
}

const (
	jobsSheet    = "Jobs"
	summarySheet = "Summary"

	// Excel rejects cells longer than this.
	maxCellChars = 32767
)

var jobHeaders = []string{
	"Identity Key",
	"Title",
	"Company",
	"Location",
	"Country",
	"Seniority",
	"Sector",
	"Skills",
	"Salary",
	"Quality Score",
	"Platform",
	"URL",
	"Captured At",
	"Description",
	"Requirements",
}

// ExportXLSX returns a workbook with a Jobs sheet (one row per stored job
// matching opts) and a Summary sheet with the aggregate views.
func (s *Service) ExportXLSX(ctx context.Context, opts store.ListOptions) ([]byte, error) {
	start := time.Now()

	jobs, err := s.reader.ListJobs(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	st, err := s.reader.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with Sheet1; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", jobsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeJobs(f, jobs); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	writeSummary(f, st)

	idx, _ := f.GetSheetIndex(jobsSheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export complete",
		"rows", len(jobs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeJobs(f *excelize.File, jobs []model.CanonicalJob) error {
	if err := f.SetSheetRow(jobsSheet, "A1", &jobHeaders); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for i, j := range jobs {
		row := []any{
			j.IdentityKey,
			j.Title,
			j.Company,
			j.Location,
			j.Country,
			j.Seniority,
			j.Sector,
			strings.Join(j.Skills, ", "),
			j.SalaryRange,
			j.QualityScore,
			j.SourcePlatform,
			j.SourceURL,
			j.CapturedAt.UTC().Format(time.RFC3339),
			truncate(j.Description, maxCellChars),
			truncate(j.Requirements, maxCellChars),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(jobsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(jobsSheet, "A", "A", 36) // key
	_ = f.SetColWidth(jobsSheet, "B", "C", 32) // title, company
	_ = f.SetColWidth(jobsSheet, "D", "G", 16)
	_ = f.SetColWidth(jobsSheet, "H", "H", 40) // skills
	_ = f.SetColWidth(jobsSheet, "L", "L", 48) // url
	_ = f.SetColWidth(jobsSheet, "N", "O", 60) // long text
	_ = f.SetPanes(jobsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	return nil
}

// writeSummary lays the aggregate tables out one below the other.
func writeSummary(f *excelize.File, st store.Stats) {
	row := 1
	write := func(vals ...any) {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(summarySheet, cell, &vals)
		row++
	}

	write("Total jobs", st.Total)
	write("Active jobs", st.Active)
	row++

	write("Sector", "Jobs")
	for _, c := range st.Sectors {
		write(c.Name, c.Jobs)
	}
	row++

	write("Country", "Jobs")
	for _, c := range st.Countries {
		write(c.Name, c.Jobs)
	}
	row++

	write("Skill", "Category", "Jobs")
	for _, c := range st.TopSkills {
		write(c.Name, c.Category, c.Jobs)
	}
	row++

	write("Platform", "Jobs", "With description %", "With salary %", "Avg quality")
	for _, q := range st.Platforms {
		write(q.Platform, q.Jobs, round1(q.DescRate), round1(q.SalaryRate), round1(q.AverageScore))
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "B", "E", 18)
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
