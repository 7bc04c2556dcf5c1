package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Environment:                "local",
		LogLevel:                   "info",
		DataDir:                    "data",
		MaxHashes:                  20000,
		URLSimilarityThreshold:     0.90,
		TitleSimilarityThreshold:   0.85,
		FuzzyTitleThreshold:        0.80,
		ContentSimilarityThreshold: 0.75,
		ContentSimilarityEnabled:   true,
		TimeWindowHours:            72,
		APIRetentionDays:           7,
		SourceRetentionDays:        30,
		APIHistoryCap:              2000,
		SourceHistoryCap:           1000,
		FuzzyTitleWindow:           100,
		ContentWindow:              50,
		APISources:                 "newsapi",
		HTTPAddr:                   ":8080",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsOutOfRangeThresholds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "title threshold above one",
			mutate: func(c *Config) { c.TitleSimilarityThreshold = 1.2 },
			want:   "DEDUP_TITLE_SIMILARITY_THRESHOLD",
		},
		{
			name:   "negative fuzzy threshold",
			mutate: func(c *Config) { c.FuzzyTitleThreshold = -0.1 },
			want:   "DEDUP_FUZZY_TITLE_THRESHOLD",
		},
		{
			name:   "zero max hashes",
			mutate: func(c *Config) { c.MaxHashes = 0 },
			want:   "DEDUP_MAX_HASHES",
		},
		{
			name:   "zero retention",
			mutate: func(c *Config) { c.APIRetentionDays = 0 },
			want:   "DEDUP_API_RETENTION_DAYS",
		},
		{
			name:   "empty data dir",
			mutate: func(c *Config) { c.DataDir = " " },
			want:   "DEDUP_DATA_DIR",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestAPISourcesList(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.APISources = "NewsAPI, gnews,newsapi, ,"

	got := cfg.APISourcesList()
	if len(got) != 2 {
		t.Fatalf("expected 2 sources, got %d (%v)", len(got), got)
	}
	if got[0] != "newsapi" || got[1] != "gnews" {
		t.Fatalf("unexpected sources: %v", got)
	}
}

func TestAPISourcesListSanitizesLabels(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.APISources = "News API, The Guardian!"

	got := cfg.APISourcesList()
	if len(got) != 2 || got[0] != "news_api" || got[1] != "the_guardian" {
		t.Fatalf("expected sanitized source labels, got %v", got)
	}
}
