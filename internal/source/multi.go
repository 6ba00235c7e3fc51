package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobpipe/internal/model"
)

var _ model.RecordSource = (*Multi)(nil)

// Multi fans in several sources. A failing source is logged and skipped so
// one broken board does not block the others; Fetch fails only when every
// source failed.
type Multi struct {
	sources []model.RecordSource
	logger  *slog.Logger
}

// NewMulti combines sources. Records keep source order, then each source's
// own order.
func NewMulti(logger *slog.Logger, sources ...model.RecordSource) *Multi {
	return &Multi{sources: sources, logger: logger}
}

func (m *Multi) Name() string { return "all" }

func (m *Multi) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	results := make([][]model.RawRecord, len(m.sources))
	errs := make([]error, len(m.sources))

	var g errgroup.Group
	for i, src := range m.sources {
		g.Go(func() error {
			recs, err := src.Fetch(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				m.logger.Error("source fetch failed", "source", src.Name(), "error", err)
				return nil
			}
			m.logger.Debug("source fetched", "source", src.Name(), "records", len(recs))
			results[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	var all []model.RawRecord
	for i := range m.sources {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, results[i]...)
	}
	if len(m.sources) > 0 && failed == len(m.sources) {
		return nil, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
	}
	return all, nil
}
