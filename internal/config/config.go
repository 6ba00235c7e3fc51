package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source types.
const (
	SourceFile       = "file"
	SourceHTTP       = "http"
	SourceGreenhouse = "greenhouse"
	SourceLever      = "lever"
)

// Config is the root configuration for the jobpipe pipeline.
type Config struct {
	StorePath       string
	TaxonomyPath    string // empty means the built-in taxonomy
	PollingInterval time.Duration
	Retention       time.Duration
	HTTPTimeout     time.Duration
	Pipeline        PipelineConfig
	Sources         []SourceConfig
	Notification    NotificationConfig
	RateLimit       RateLimitConfig
	Retry           RetryConfig
}

// PipelineConfig tunes the record pipeline.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig controls per-host rate limiting of sources.
type RateLimitConfig struct {
	MinDelay time.Duration // minimum gap between requests to the same host
}

// RetryConfig controls source fetch retries.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NotificationConfig controls which reporter receives run summaries.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// SourceConfig describes a single place raw records come from.
type SourceConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`        // file | http | greenhouse | lever
	Path       string `yaml:"path"`        // file
	URL        string `yaml:"url"`         // http
	BoardToken string `yaml:"board_token"` // greenhouse board token or lever slug
	Company    string `yaml:"company"`     // greenhouse/lever, defaults to name
	Platform   string `yaml:"platform"`    // file/http, defaults to name
	Enabled    bool   `yaml:"enabled"`
}

// EnabledSources returns the sources with enabled: true, in file order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

const (
	defaultStorePath = "jobpipe.db"
	defaultWorkers   = 4
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	StorePath       string             `yaml:"store_path"`
	TaxonomyPath    string             `yaml:"taxonomy_path"`
	PollingInterval string             `yaml:"polling_interval"`
	Retention       string             `yaml:"retention"`
	HTTPTimeout     string             `yaml:"http_timeout"`
	Pipeline        PipelineConfig     `yaml:"pipeline"`
	Sources         []SourceConfig     `yaml:"sources"`
	Notification    NotificationConfig `yaml:"notification"`
	RateLimit       rawRateLimitConfig `yaml:"rate_limit"`
	Retry           rawRetryConfig     `yaml:"retry"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := parseDuration("polling_interval", raw.PollingInterval, time.Hour)
	if err != nil {
		return nil, err
	}
	retention, err := parseDuration("retention", raw.Retention, 720*time.Hour) // 30 days
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDuration("http_timeout", raw.HTTPTimeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}
	baseDelay, err := parseDuration("retry.base_delay", raw.Retry.BaseDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}

	maxRetries := 2
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	storePath := raw.StorePath
	if storePath == "" {
		storePath = defaultStorePath
	}
	workers := raw.Pipeline.Workers
	if workers == 0 {
		workers = defaultWorkers
	}
	notification := raw.Notification
	if notification.Type == "" {
		notification.Type = "log"
	}

	sources := make([]SourceConfig, len(raw.Sources))
	for i, s := range raw.Sources {
		s.Type = strings.ToLower(strings.TrimSpace(s.Type))
		if s.Platform == "" {
			s.Platform = s.Name
		}
		if s.Company == "" {
			s.Company = s.Name
		}
		sources[i] = s
	}

	cfg := &Config{
		StorePath:       storePath,
		TaxonomyPath:    raw.TaxonomyPath,
		PollingInterval: interval,
		Retention:       retention,
		HTTPTimeout:     httpTimeout,
		Pipeline:        PipelineConfig{Workers: workers},
		Sources:         sources,
		Notification:    notification,
		RateLimit:       RateLimitConfig{MinDelay: minDelay},
		Retry:           RetryConfig{MaxRetries: maxRetries, BaseDelay: baseDelay},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(field, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.Retention < 0 {
		return fmt.Errorf("retention must not be negative, got %v", cfg.Retention)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %v", cfg.HTTPTimeout)
	}
	if cfg.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1, got %d", cfg.Pipeline.Workers)
	}
	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be positive, got %v", cfg.Retry.BaseDelay)
	}

	names := make(map[string]bool)
	enabled := 0
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if names[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		names[s.Name] = true
		if err := validateSource(s); err != nil {
			return fmt.Errorf("sources[%d] %q: %w", i, s.Name, err)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}

func validateSource(s SourceConfig) error {
	switch s.Type {
	case SourceFile:
		if s.Path == "" {
			return fmt.Errorf("path is required for type %q", s.Type)
		}
	case SourceHTTP:
		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("url must be an absolute http(s) URL, got %q", s.URL)
		}
	case SourceGreenhouse, SourceLever:
		if s.BoardToken == "" {
			return fmt.Errorf("board_token is required for type %q", s.Type)
		}
	default:
		return fmt.Errorf("unknown type %q (want file, http, greenhouse or lever)", s.Type)
	}
	return nil
}
