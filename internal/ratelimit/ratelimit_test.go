package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

func TestWait_SameHost_EnforcesMinDelay(t *testing.T) {
	limiter := NewHostLimiter(100 * time.Millisecond)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "boards-api.greenhouse.io"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "boards-api.greenhouse.io"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentHosts_NoCrossBlocking(t *testing.T) {
	limiter := NewHostLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "boards-api.greenhouse.io"); err != nil {
		t.Fatalf("greenhouse wait: %v", err)
	}

	// Immediately call for lever, which should not block.
	start := time.Now()
	if err := limiter.Wait(ctx, "api.lever.co"); err != nil {
		t.Fatalf("lever wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected lever wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_ZeroDelayNeverBlocks(t *testing.T) {
	limiter := NewHostLimiter(0)
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(context.Background(), "x"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected no delay, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewHostLimiter(5 * time.Second) // long delay

	// First call to take the only token.
	if err := limiter.Wait(context.Background(), "api.lever.co"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "api.lever.co"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

func TestHostOf(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://Boards-API.greenhouse.io/v1/boards/acme/jobs", "boards-api.greenhouse.io"},
		{"http://localhost:8080/feed.json", "localhost"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := HostOf(tt.in); got != tt.want {
			t.Errorf("HostOf(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- Mocks for RateLimitedSource tests ---

type recordingSource struct {
	called bool
	url    string
}

func (s *recordingSource) Name() string { return "rec" }

func (s *recordingSource) Fetch(_ context.Context) ([]model.RawRecord, error) {
	s.called = true
	return nil, nil
}

type urlRecordingSource struct {
	recordingSource
}

func (s *urlRecordingSource) URL() string { return s.url }

func TestRateLimitedSource_Key(t *testing.T) {
	limiter := NewHostLimiter(time.Millisecond)

	byName := NewRateLimitedSource(&recordingSource{}, limiter)
	if byName.Key() != "source:rec" {
		t.Errorf("Key = %q, want source:rec", byName.Key())
	}

	byURL := NewRateLimitedSource(&urlRecordingSource{recordingSource{url: "https://api.lever.co/v0/postings/acme"}}, limiter)
	if byURL.Key() != "api.lever.co" {
		t.Errorf("Key = %q, want api.lever.co", byURL.Key())
	}
	if byURL.Name() != "rec" {
		t.Errorf("Name = %q, want rec", byURL.Name())
	}
}

func TestRateLimitedSource_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewHostLimiter(100 * time.Millisecond)
	inner := &urlRecordingSource{recordingSource{url: "https://boards-api.greenhouse.io/v1/boards/a/jobs"}}
	other := &urlRecordingSource{recordingSource{url: "https://boards-api.greenhouse.io/v1/boards/b/jobs"}}
	first := NewRateLimitedSource(inner, limiter)
	second := NewRateLimitedSource(other, limiter)
	ctx := context.Background()

	if _, err := first.Fetch(ctx); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner source was not called on first fetch")
	}

	// Same host, different board: must wait.
	start := time.Now()
	if _, err := second.Fetch(ctx); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	elapsed := time.Since(start)

	if !other.called {
		t.Fatal("inner source was not called on second fetch")
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second fetch, got %v", elapsed)
	}
}
