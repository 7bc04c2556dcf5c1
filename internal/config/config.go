package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"horse.fit/dedup/internal/normalize"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DataDir string `envconfig:"DEDUP_DATA_DIR" default:"data"`

	// Compact-hash registry.
	MaxHashes int `envconfig:"DEDUP_MAX_HASHES" default:"20000"`

	// Similarity thresholds. The fuzzy-title cutoff applies inside a
	// per-source history window; the title cutoff applies across sources.
	URLSimilarityThreshold     float64 `envconfig:"DEDUP_URL_SIMILARITY_THRESHOLD" default:"0.90"`
	TitleSimilarityThreshold   float64 `envconfig:"DEDUP_TITLE_SIMILARITY_THRESHOLD" default:"0.85"`
	FuzzyTitleThreshold        float64 `envconfig:"DEDUP_FUZZY_TITLE_THRESHOLD" default:"0.80"`
	ContentSimilarityThreshold float64 `envconfig:"DEDUP_CONTENT_SIMILARITY_THRESHOLD" default:"0.75"`

	ContentSimilarityEnabled bool `envconfig:"DEDUP_CONTENT_SIMILARITY_ENABLED" default:"true"`

	// History windows and retention.
	TimeWindowHours     int `envconfig:"DEDUP_TIME_WINDOW_HOURS" default:"72"`
	APIRetentionDays    int `envconfig:"DEDUP_API_RETENTION_DAYS" default:"7"`
	SourceRetentionDays int `envconfig:"DEDUP_SOURCE_RETENTION_DAYS" default:"30"`
	APIHistoryCap       int `envconfig:"DEDUP_API_HISTORY_CAP" default:"2000"`
	SourceHistoryCap    int `envconfig:"DEDUP_SOURCE_HISTORY_CAP" default:"1000"`

	// Similarity comparisons never scan the full history, only the most
	// recent window of records.
	FuzzyTitleWindow int `envconfig:"DEDUP_FUZZY_TITLE_WINDOW" default:"100"`
	ContentWindow    int `envconfig:"DEDUP_CONTENT_WINDOW" default:"50"`

	// Sources routed through the shared API-family store instead of a
	// per-source store. Comma separated, matched after sanitization.
	APISources string `envconfig:"DEDUP_API_SOURCES" default:"newsapi"`

	HTTPAddr string `envconfig:"DEDUP_HTTP_ADDR" default:":8080"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DEDUP_DATA_DIR is required")
	}
	if c.MaxHashes < 1 {
		return fmt.Errorf("DEDUP_MAX_HASHES must be >= 1")
	}
	thresholds := map[string]float64{
		"DEDUP_URL_SIMILARITY_THRESHOLD":     c.URLSimilarityThreshold,
		"DEDUP_TITLE_SIMILARITY_THRESHOLD":   c.TitleSimilarityThreshold,
		"DEDUP_FUZZY_TITLE_THRESHOLD":        c.FuzzyTitleThreshold,
		"DEDUP_CONTENT_SIMILARITY_THRESHOLD": c.ContentSimilarityThreshold,
	}
	for name, value := range thresholds {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s (%g) must be within [0, 1]", name, value)
		}
	}
	if c.TimeWindowHours < 1 {
		return fmt.Errorf("DEDUP_TIME_WINDOW_HOURS must be >= 1")
	}
	if c.APIRetentionDays < 1 {
		return fmt.Errorf("DEDUP_API_RETENTION_DAYS must be >= 1")
	}
	if c.SourceRetentionDays < 1 {
		return fmt.Errorf("DEDUP_SOURCE_RETENTION_DAYS must be >= 1")
	}
	if c.APIHistoryCap < 1 {
		return fmt.Errorf("DEDUP_API_HISTORY_CAP must be >= 1")
	}
	if c.SourceHistoryCap < 1 {
		return fmt.Errorf("DEDUP_SOURCE_HISTORY_CAP must be >= 1")
	}
	if c.FuzzyTitleWindow < 1 {
		return fmt.Errorf("DEDUP_FUZZY_TITLE_WINDOW must be >= 1")
	}
	if c.ContentWindow < 1 {
		return fmt.Errorf("DEDUP_CONTENT_WINDOW must be >= 1")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("DEDUP_HTTP_ADDR is required")
	}
	return nil
}

func (c *Config) APISourcesList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.APISources, ",")
	sources := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		source := normalize.SourceName(part)
		if _, exists := seen[source]; exists {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	return sources
}
