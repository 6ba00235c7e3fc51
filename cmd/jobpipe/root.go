package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpipe/internal/config"
	"github.com/amishk599/jobpipe/internal/model"
	"github.com/amishk599/jobpipe/internal/pipeline"
	"github.com/amishk599/jobpipe/internal/ratelimit"
	"github.com/amishk599/jobpipe/internal/report"
	"github.com/amishk599/jobpipe/internal/retry"
	"github.com/amishk599/jobpipe/internal/source"
	"github.com/amishk599/jobpipe/internal/taxonomy"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobpipe",
	Short: "Job posting normalization and classification pipeline",
	Long: "jobpipe turns scraped job postings into a deduplicated, classified corpus:\n" +
		"it cleans text, extracts skills, resolves country, seniority and sector,\n" +
		"merges duplicates and stores the result in SQLite.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBPIPE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBPIPE_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBPIPE_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupReporter(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Reporter {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack reporter")
		return report.NewSlackReporter(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return report.NewLogReporter(logger)
	}
}

// loadTaxonomy loads the configured taxonomy, or the built-in one.
func loadTaxonomy(cfg *config.Config, logger *slog.Logger) (*taxonomy.Taxonomy, error) {
	tax, err := taxonomy.Load(cfg.TaxonomyPath)
	if err != nil {
		return nil, err
	}
	path := cfg.TaxonomyPath
	if path == "" {
		path = "built-in"
	}
	logger.Info("taxonomy loaded",
		"path", path,
		"skills", len(tax.Skills),
		"sectors", len(tax.Sectors),
		"places", len(tax.Gazetteer),
	)
	return tax, nil
}

// createSource builds the base source for one config entry.
func createSource(sc config.SourceConfig, httpClient *http.Client) (model.RecordSource, error) {
	switch sc.Type {
	case config.SourceFile:
		return source.NewFileSource(sc.Name, sc.Path, sc.Platform), nil
	case config.SourceHTTP:
		return source.NewFeedSource(sc.Name, sc.URL, sc.Platform, httpClient), nil
	case config.SourceGreenhouse:
		return source.NewGreenhouseSource(sc.BoardToken, sc.Company, httpClient), nil
	case config.SourceLever:
		return source.NewLeverSource(sc.BoardToken, sc.Company, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", sc.Type)
	}
}

// buildSource wires every enabled source. Network sources share one
// per-host limiter and are retried; the result is fanned in when there is
// more than one.
func buildSource(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (model.RecordSource, error) {
	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.MinDelay)
	logger.Info("rate limiter configured", "min_delay", cfg.RateLimit.MinDelay.String())

	var sources []model.RecordSource
	for _, sc := range cfg.EnabledSources() {
		src, err := createSource(sc, httpClient)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
		if sc.Type != config.SourceFile {
			src = ratelimit.NewRateLimitedSource(src, limiter)
		}
		src = retry.NewRetrySource(src, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
		sources = append(sources, src)
		logger.Info("registered source", "name", sc.Name, "type", sc.Type)
	}

	switch len(sources) {
	case 0:
		return nil, fmt.Errorf("no enabled sources")
	case 1:
		return sources[0], nil
	default:
		return source.NewMulti(logger, sources...), nil
	}
}

// buildRunner assembles the full run: taxonomy, pipeline, sources, reporter.
func buildRunner(cfg *config.Config, tax *taxonomy.Taxonomy, jobStore model.JobStore, logger *slog.Logger) (*pipeline.Runner, error) {
	p, err := pipeline.New(tax, pipeline.Options{Workers: cfg.Pipeline.Workers}, logger)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	src, err := buildSource(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}
	reporter := setupReporter(cfg, httpClient, logger)
	return pipeline.NewRunner(p, src, jobStore, reporter, logger), nil
}
