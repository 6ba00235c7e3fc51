// Package retry re-attempts source fetches that failed for transient reasons.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

var _ model.RecordSource = (*RetrySource)(nil)

// jitter is the maximum relative deviation applied to each backoff delay.
const jitter = 0.3

// RetrySource wraps a RecordSource. Each attempt is all or nothing: records
// from a failed attempt are discarded, never merged with a later one.
type RetrySource struct {
	inner      model.RecordSource
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetrySource retries inner up to maxRetries extra times. The delay starts
// at baseDelay and doubles per attempt.
func NewRetrySource(inner model.RecordSource, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySource {
	return &RetrySource{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

func (s *RetrySource) Name() string { return s.inner.Name() }

func (s *RetrySource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	var err error
	for attempt := 0; ; attempt++ {
		var recs []model.RawRecord
		recs, err = s.inner.Fetch(ctx)
		switch {
		case err == nil:
			if attempt > 0 {
				s.logger.Info("source recovered", "source", s.inner.Name(), "attempts", attempt+1)
			}
			return recs, nil
		case !isRetryable(err), attempt >= s.maxRetries:
			return nil, err
		}

		delay := s.backoffDelay(attempt+1, err)
		s.logger.Warn("source fetch failed, retrying",
			"source", s.inner.Name(),
			"retry", attempt+1,
			"of", s.maxRetries,
			"delay", delay,
			"error", err,
		)
		if werr := sleep(ctx, delay); werr != nil {
			return nil, fmt.Errorf("retry %s: %w", s.inner.Name(), werr)
		}
	}
}

// backoffDelay returns baseDelay*2^(attempt-1) with jitter, or the server's
// Retry-After when the failure carried one.
func (s *RetrySource) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}
	d := float64(s.baseDelay) * float64(uint(1)<<(attempt-1))
	return time.Duration(d * (1 + jitter*(2*rand.Float64()-1)))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isRetryable reports whether err is transient. Throttling and server or
// network failures qualify; a dump file that is missing or undecodable fails
// the same way on every attempt.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// A body cut off mid-read.
	return errors.Is(err, io.ErrUnexpectedEOF)
}
