package retry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockSource calls a function on each invocation, tracking call count.
type mockSource struct {
	calls int
	fn    func(attempt int) ([]model.RawRecord, error)
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Fetch(_ context.Context) ([]model.RawRecord, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	recs := []model.RawRecord{{Title: "Engineer"}}
	mock := &mockSource{fn: func(_ int) ([]model.RawRecord, error) {
		return recs, nil
	}}

	rs := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rs.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Engineer" {
		t.Fatalf("unexpected records: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
	if rs.Name() != "mock" {
		t.Errorf("Name = %q, want the wrapped source's name", rs.Name())
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockSource{fn: func(attempt int) ([]model.RawRecord, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return []model.RawRecord{{Title: "QA"}}, nil
	}}

	rs := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rs.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.RawRecord, error) {
		return nil, fmt.Errorf("feed x: %w", &model.HTTPError{StatusCode: 404, Err: errors.New("not found")})
	}}

	rs := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rs.Fetch(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryMissingFile(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.RawRecord, error) {
		return nil, fmt.Errorf("file source dump: %w", fs.ErrNotExist)
	}}
	rs := NewRetrySource(mock, 3, 10*time.Millisecond, discardLogger())
	if _, err := rs.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_NoRetryOnUndecodableFile(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.RawRecord, error) {
		var v []map[string]any
		err := json.Unmarshal([]byte(`[{"title": `), &v)
		return nil, fmt.Errorf("file source dump: jobs.json: %w", err)
	}}

	rs := NewRetrySource(mock, 3, 10*time.Millisecond, discardLogger())
	if _, err := rs.Fetch(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_RetriesNetworkErrors(t *testing.T) {
	mock := &mockSource{fn: func(attempt int) ([]model.RawRecord, error) {
		if attempt == 1 {
			return nil, &url.Error{Op: "Get", URL: "https://boards.example.com", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
		}
		return []model.RawRecord{{Title: "Go Developer"}}, nil
	}}

	rs := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	recs, err := rs.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || mock.calls != 2 {
		t.Fatalf("got %d records after %d calls, want 1 after 2", len(recs), mock.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &model.HTTPError{StatusCode: 429}, true},
		{"503 wrapped", fmt.Errorf("feed: %w", &model.HTTPError{StatusCode: 503}), true},
		{"404", &model.HTTPError{StatusCode: 404}, false},
		{"dial error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, true},
		{"truncated body", fmt.Errorf("GET x: reading body: %w", io.ErrUnexpectedEOF), true},
		{"missing file", fmt.Errorf("file source: %w", fs.ErrNotExist), false},
		{"syntax error", &json.SyntaxError{Offset: 3}, false},
		{"plain error", errors.New("decode: bad record"), false},
		{"cancelled", context.Canceled, false},
		{"cancelled inside url error", &url.Error{Op: "Get", URL: "x", Err: context.Canceled}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.RawRecord, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	rs := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	if _, err := rs.Fetch(context.Background()); err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.RawRecord, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	rs := NewRetrySource(mock, 2, time.Second, discardLogger())
	_, err := rs.Fetch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestBackoffDelay_PrefersRetryAfter(t *testing.T) {
	rs := NewRetrySource(&mockSource{}, 2, time.Second, discardLogger())
	err := &model.HTTPError{StatusCode: 429, RetryAfter: 42 * time.Second}
	if got := rs.backoffDelay(1, err); got != 42*time.Second {
		t.Errorf("backoffDelay = %v, want 42s", got)
	}
	// attempt 3 → base * 4 with ±30% jitter
	got := rs.backoffDelay(3, errors.New("net"))
	if got < 2800*time.Millisecond || got > 5200*time.Millisecond {
		t.Errorf("backoffDelay(3) = %v, want 4s ±30%%", got)
	}
}
