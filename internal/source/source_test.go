package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

var fetchTime = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource_JSONLines(t *testing.T) {
	content := `{"title": "Senior Backend Developer en DataCorp", "company_name": null, "location": "", "description": "<p>oferta en Lima</p>", "source_platform": "GetonBoard", "source_url": "https://www.getonbrd.com/jobs/1", "scraped_at": "2026-03-01T10:30:00.123456"}

{"job_id": "abc-1", "title": "QA", "company_name": "Acme", "location": ["Santiago", " ", "Chile"], "scraped_at": "2026-03-01T11:00:00Z"}
not json at all
`
	src := NewFileSource("dump", writeFile(t, content), "computrabajo")
	src.now = func() time.Time { return fetchTime }

	recs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}

	first := recs[0]
	if first.Title != "Senior Backend Developer en DataCorp" || first.Company != "" || first.SourcePlatform != "GetonBoard" {
		t.Errorf("first = %+v", first)
	}
	if want := time.Date(2026, 3, 1, 10, 30, 0, 123456000, time.UTC); !first.CapturedAt.Equal(want) {
		t.Errorf("CapturedAt = %v, want %v", first.CapturedAt, want)
	}
	if len(first.Defects) != 0 {
		t.Errorf("Defects = %v", first.Defects)
	}

	second := recs[1]
	if second.NativeID != "abc-1" || second.Location != "Santiago Chile" {
		t.Errorf("second = %+v", second)
	}
	if second.SourcePlatform != "computrabajo" {
		t.Errorf("SourcePlatform = %q, want the configured default", second.SourcePlatform)
	}

	third := recs[2]
	if !slices.Equal(third.Defects, []string{"record"}) || !third.CapturedAt.Equal(fetchTime) {
		t.Errorf("third = %+v", third)
	}
}

func TestFileSource_JSONArrayAndDefects(t *testing.T) {
	content := `[
		{"title": "Data Engineer", "company_name": {"name": "Acme"}, "salary_range": 3000, "scraped_at": "yesterday"},
		{"title": "QA", "company_name": "Acme", "scraped_at": 1772359200}
	]`
	src := NewFileSource("dump", writeFile(t, content), "linkedin")
	src.now = func() time.Time { return fetchTime }

	recs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	r := recs[0]
	if r.Company != "" || r.SalaryRange != "3000" {
		t.Errorf("coerced fields = %q / %q", r.Company, r.SalaryRange)
	}
	if !slices.Equal(r.Defects, []string{"company_name", "salary_range", "scraped_at"}) {
		t.Errorf("Defects = %v", r.Defects)
	}
	if !r.CapturedAt.Equal(fetchTime) {
		t.Errorf("CapturedAt = %v, want fetch time", r.CapturedAt)
	}
	if got := recs[1].CapturedAt; !got.Equal(time.Unix(1772359200, 0)) {
		t.Errorf("unix CapturedAt = %v", got)
	}
}

func TestFileSource_Errors(t *testing.T) {
	if _, err := NewFileSource("x", filepath.Join(t.TempDir(), "missing.jsonl"), "p").Fetch(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := NewFileSource("x", writeFile(t, "[{broken"), "p").Fetch(context.Background()); err == nil {
		t.Error("expected error for broken JSON array")
	}
	recs, err := NewFileSource("x", writeFile(t, "  \n"), "p").Fetch(context.Background())
	if err != nil || len(recs) != 0 {
		t.Errorf("empty file: %v, %v", recs, err)
	}
}

func TestFeedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jobs": [{"title": "Go Developer", "company_name": "Acme"}]}`))
	}))
	defer srv.Close()

	src := NewFeedSource("feed", srv.URL, "feed-platform", srv.Client())
	recs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 1 || recs[0].Title != "Go Developer" || recs[0].SourcePlatform != "feed-platform" {
		t.Errorf("recs = %+v", recs)
	}
}

func TestFeedSource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewFeedSource("feed", srv.URL, "p", srv.Client()).Fetch(context.Background())
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.RetryAfter != 7*time.Second {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

func TestGreenhouseSource(t *testing.T) {
	payload := `{"jobs": [{
		"id": 12345,
		"title": "Software Engineer",
		"location": {"name": "Buenos Aires"},
		"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
		"content": "&lt;p&gt;We use Go.&lt;/p&gt;"
	}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/boards/acme/jobs" || r.URL.Query().Get("content") != "true" {
			t.Errorf("unexpected request: %s", r.URL)
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	src := NewGreenhouseSource("acme", "Acme Corp", redirectClient(srv))
	src.now = func() time.Time { return fetchTime }
	recs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len = %d, want 1", len(recs))
	}
	r := recs[0]
	if r.NativeID != "12345" || r.Company != "Acme Corp" || r.SourcePlatform != "greenhouse" {
		t.Errorf("record = %+v", r)
	}
	if r.Description != "<p>We use Go.</p>" {
		t.Errorf("Description = %q, want single-encoded markup", r.Description)
	}
	if !r.CapturedAt.Equal(fetchTime) {
		t.Errorf("CapturedAt = %v", r.CapturedAt)
	}
}

func TestLeverSource(t *testing.T) {
	payload := `[{
		"id": "abc-123",
		"text": "Data Engineer",
		"description": "<div>Pipelines</div>",
		"lists": [{"text": "Requirements", "content": "<li>SQL</li><li>Python</li>"}],
		"categories": {"location": "Lima", "allLocations": ["Lima", "Remote"]},
		"salaryRange": {"currency": "USD", "min": 3000, "max": 4500},
		"hostedUrl": "https://jobs.lever.co/acme/abc-123"
	}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	recs, err := NewLeverSource("acme", "Acme", redirectClient(srv)).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	r := recs[0]
	if r.Location != "Lima, Remote" || r.SalaryRange != "USD 3000 - 4500" || r.NativeID != "abc-123" {
		t.Errorf("record = %+v", r)
	}
	if r.Requirements != "<h3>Requirements</h3><ul><li>SQL</li><li>Python</li></ul>" {
		t.Errorf("Requirements = %q", r.Requirements)
	}
}

// stubSource is a canned RecordSource.
type stubSource struct {
	name string
	recs []model.RawRecord
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context) ([]model.RawRecord, error) { return s.recs, s.err }

func TestMulti(t *testing.T) {
	a := &stubSource{name: "a", recs: []model.RawRecord{{Title: "A1"}, {Title: "A2"}}}
	broken := &stubSource{name: "broken", err: errors.New("down")}
	b := &stubSource{name: "b", recs: []model.RawRecord{{Title: "B1"}}}

	recs, err := NewMulti(discardLogger(), a, broken, b).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	var titles []string
	for _, r := range recs {
		titles = append(titles, r.Title)
	}
	if !slices.Equal(titles, []string{"A1", "A2", "B1"}) {
		t.Errorf("titles = %v", titles)
	}

	if _, err := NewMulti(discardLogger(), broken).Fetch(context.Background()); err == nil {
		t.Error("expected error when every source fails")
	}
}

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// redirectClient sends every request to srv regardless of the URL host.
func redirectClient(srv *httptest.Server) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}
