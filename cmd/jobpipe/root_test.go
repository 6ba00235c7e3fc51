package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobpipe/internal/config"
	"github.com/amishk599/jobpipe/internal/report"
	"github.com/amishk599/jobpipe/internal/retry"
	"github.com/amishk599/jobpipe/internal/source"
	"github.com/amishk599/jobpipe/internal/store"
	"github.com/amishk599/jobpipe/internal/taxonomy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(sources ...config.SourceConfig) *config.Config {
	return &config.Config{
		HTTPTimeout:  time.Second,
		Pipeline:     config.PipelineConfig{Workers: 2},
		Sources:      sources,
		Notification: config.NotificationConfig{Type: "log"},
		RateLimit:    config.RateLimitConfig{MinDelay: time.Millisecond},
		Retry:        config.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond},
	}
}

func TestCreateSource(t *testing.T) {
	client := &http.Client{}
	tests := []struct {
		sc       config.SourceConfig
		wantName string
	}{
		{config.SourceConfig{Name: "dump", Type: config.SourceFile, Path: "x.json"}, "dump"},
		{config.SourceConfig{Name: "feed", Type: config.SourceHTTP, URL: "https://example.com/f.json"}, "feed"},
		{config.SourceConfig{Name: "acme", Type: config.SourceGreenhouse, BoardToken: "acme"}, "greenhouse:acme"},
		{config.SourceConfig{Name: "beta", Type: config.SourceLever, BoardToken: "beta"}, "lever:beta"},
	}
	for _, tt := range tests {
		src, err := createSource(tt.sc, client)
		if err != nil {
			t.Fatalf("createSource(%s): %v", tt.sc.Type, err)
		}
		if src.Name() != tt.wantName {
			t.Errorf("createSource(%s).Name() = %q, want %q", tt.sc.Type, src.Name(), tt.wantName)
		}
	}

	if _, err := createSource(config.SourceConfig{Type: "ftp"}, client); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestBuildSource(t *testing.T) {
	one := testConfig(config.SourceConfig{Name: "dump", Type: config.SourceFile, Path: "x.json", Enabled: true})
	src, err := buildSource(one, &http.Client{}, discardLogger())
	if err != nil {
		t.Fatalf("buildSource: %v", err)
	}
	if _, ok := src.(*retry.RetrySource); !ok {
		t.Errorf("single source = %T, want *retry.RetrySource", src)
	}

	two := testConfig(
		config.SourceConfig{Name: "dump", Type: config.SourceFile, Path: "x.json", Enabled: true},
		config.SourceConfig{Name: "acme", Type: config.SourceGreenhouse, BoardToken: "acme", Enabled: true},
		config.SourceConfig{Name: "off", Type: config.SourceFile, Path: "y.json"},
	)
	src, err = buildSource(two, &http.Client{}, discardLogger())
	if err != nil {
		t.Fatalf("buildSource: %v", err)
	}
	if _, ok := src.(*source.Multi); !ok {
		t.Errorf("two sources = %T, want *source.Multi", src)
	}

	if _, err := buildSource(testConfig(), &http.Client{}, discardLogger()); err == nil {
		t.Error("expected error with no enabled sources")
	}
}

func TestSetupReporter(t *testing.T) {
	cfg := testConfig()
	if _, ok := setupReporter(cfg, &http.Client{}, discardLogger()).(*report.LogReporter); !ok {
		t.Error("log type should build a LogReporter")
	}
	cfg.Notification = config.NotificationConfig{Type: "slack", WebhookURL: "https://hooks.slack.com/x"}
	if _, ok := setupReporter(cfg, &http.Client{}, discardLogger()).(*report.SlackReporter); !ok {
		t.Error("slack type should build a SlackReporter")
	}
}

func TestBuildRunner_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.jsonl")
	lines := `{"title":"Senior Backend Developer en DataCorp","description":"oferta en Lima, Peru. Usamos Python y AWS.","source_platform":"linkedin","source_url":"https://pe.linkedin.com/jobs/view/1"}
{"title":"   ","company":"Acme"}
`
	if err := os.WriteFile(dump, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(config.SourceConfig{Name: "dump", Type: config.SourceFile, Path: dump, Platform: "linkedin", Enabled: true})
	tax, err := taxonomy.Default()
	if err != nil {
		t.Fatalf("taxonomy.Default: %v", err)
	}
	st, err := store.NewSQLiteStore(filepath.Join(dir, "jobs.db"), tax.SkillCategories())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	runner, err := buildRunner(cfg, tax, st, discardLogger())
	if err != nil {
		t.Fatalf("buildRunner: %v", err)
	}
	rep, err := runner.Run(t.Context())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Canonical != 1 || rep.Rejected != 1 || rep.Stored != 1 {
		t.Errorf("report = %+v", rep)
	}

	jobs, err := st.ListJobs(t.Context(), store.ListOptions{})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Company != "DataCorp" || jobs[0].Country != "Peru" || jobs[0].Seniority != "Senior" {
		t.Errorf("stored = %+v", jobs)
	}
}
