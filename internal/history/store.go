// Package history persists per-source duplicate-detection state: URL and
// title hash sets plus a bounded, insertion-ordered window of recent
// records. A day-partitioned log supports rolling multi-day fuzzy matching
// without loading full history.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/dedup/internal/globaltime"
	"horse.fit/dedup/internal/normalize"
)

const storeFileSuffix = "_history.json"

// Record is one accepted article as remembered by a store.
type Record struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ContentHash string     `json:"content_hash"`
	AddedAt     time.Time  `json:"added_at"`
}

type storeFile struct {
	Source      string     `json:"source"`
	URLHashes   []string   `json:"url_hashes"`
	TitleHashes []string   `json:"title_hashes"`
	Recent      []Record   `json:"recent_articles"`
	TotalSeen   int        `json:"total_articles_seen"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Store holds the persisted duplicate-detection state for one source (or
// one shared API family).
type Store struct {
	path   string
	source string
	cap    int
	logger zerolog.Logger

	urlHashes   map[string]struct{}
	titleHashes map[string]struct{}
	recent      []Record
	totalSeen   int
	degraded    bool
}

// Open loads the store for source from dir, failing open to an empty store
// on a missing or corrupt file.
func Open(dir, source string, recordCap int, logger zerolog.Logger) *Store {
	sanitized := normalize.SourceName(source)
	s := &Store{
		path:        filepath.Join(dir, sanitized+storeFileSuffix),
		source:      sanitized,
		cap:         recordCap,
		logger:      logger,
		urlHashes:   make(map[string]struct{}),
		titleHashes: make(map[string]struct{}),
	}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.degraded = true
			s.logger.Warn().Err(err).Str("source", s.source).
				Msg("failed to load history store, starting empty")
		}
		return
	}

	var f storeFile
	if err := json.Unmarshal(raw, &f); err != nil {
		s.degraded = true
		s.logger.Warn().Err(err).Str("source", s.source).
			Msg("history store corrupt, starting empty")
		return
	}

	for _, h := range f.URLHashes {
		if h = strings.TrimSpace(h); h != "" {
			s.urlHashes[h] = struct{}{}
		}
	}
	for _, h := range f.TitleHashes {
		if h = strings.TrimSpace(h); h != "" {
			s.titleHashes[h] = struct{}{}
		}
	}
	s.recent = f.Recent
	s.totalSeen = f.TotalSeen
	if len(s.recent) > s.cap {
		s.recent = s.recent[len(s.recent)-s.cap:]
	}
}

// Source returns the sanitized source identifier.
func (s *Store) Source() string {
	return s.source
}

func (s *Store) HasURLHash(hash string) bool {
	_, ok := s.urlHashes[hash]
	return ok
}

func (s *Store) HasTitleHash(hash string) bool {
	_, ok := s.titleHashes[hash]
	return ok
}

// Append records an accepted article, updating the hash sets and the
// bounded recent list. The oldest record is evicted once the list exceeds
// the store cap.
func (s *Store) Append(rec Record, urlHash, titleHash string) {
	if urlHash != "" {
		s.urlHashes[urlHash] = struct{}{}
	}
	if titleHash != "" {
		s.titleHashes[titleHash] = struct{}{}
	}
	s.recent = append(s.recent, rec)
	if len(s.recent) > s.cap {
		s.recent = s.recent[len(s.recent)-s.cap:]
	}
	s.totalSeen++
}

// RecentWindow returns up to n of the most recent records, oldest first.
func (s *Store) RecentWindow(n int) []Record {
	if n <= 0 || len(s.recent) == 0 {
		return nil
	}
	if len(s.recent) <= n {
		return s.recent
	}
	return s.recent[len(s.recent)-n:]
}

// Save writes the store to its backing file in one operation.
func (s *Store) Save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory %s: %w", dir, err)
		}
	}

	now := globaltime.UTC()
	f := storeFile{
		Source:      s.source,
		URLHashes:   sortedHashes(s.urlHashes),
		TitleHashes: sortedHashes(s.titleHashes),
		Recent:      s.recent,
		TotalSeen:   s.totalSeen,
		LastUpdated: &now,
	}

	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history store %s: %w", s.source, err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write history store %s: %w", s.path, err)
	}
	return nil
}

// Stats summarizes the store for reporting.
type Stats struct {
	Source        string `json:"source"`
	RecentRecords int    `json:"recent_records"`
	URLHashes     int    `json:"url_hashes"`
	TitleHashes   int    `json:"title_hashes"`
	TotalSeen     int    `json:"total_articles_seen"`
	Degraded      bool   `json:"degraded,omitempty"`
}

func (s *Store) Stats() Stats {
	return Stats{
		Source:        s.source,
		RecentRecords: len(s.recent),
		URLHashes:     len(s.urlHashes),
		TitleHashes:   len(s.titleHashes),
		TotalSeen:     s.totalSeen,
		Degraded:      s.degraded,
	}
}

// Degraded reports whether the store fell back to empty state at load.
func (s *Store) Degraded() bool {
	return s.degraded
}

// ListSources returns the sanitized source identifiers that have a store
// file under dir, sorted.
func ListSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history directory %s: %w", dir, err)
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), storeFileSuffix) {
			continue
		}
		sources = append(sources, strings.TrimSuffix(entry.Name(), storeFileSuffix))
	}
	sort.Strings(sources)
	return sources, nil
}

// PruneStores drops records older than retentionDays from every store file
// under dir. Records without a usable added date are kept; a genuinely
// unknown age must not cause content loss.
func PruneStores(dir string, retentionDays int, logger zerolog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read history directory %s: %w", dir, err)
	}

	cutoff := globaltime.UTC().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), storeFileSuffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable history store")
			continue
		}
		var f storeFile
		if err := json.Unmarshal(raw, &f); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping corrupt history store")
			continue
		}

		kept := f.Recent[:0]
		for _, rec := range f.Recent {
			if rec.AddedAt.IsZero() || rec.AddedAt.After(cutoff) {
				kept = append(kept, rec)
			}
		}
		dropped := len(f.Recent) - len(kept)
		if dropped == 0 {
			continue
		}
		f.Recent = kept

		updated, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to re-marshal history store")
			continue
		}
		if err := os.WriteFile(path, updated, 0o644); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to rewrite history store")
			continue
		}
		removed += dropped
		logger.Info().
			Str("source", f.Source).
			Int("dropped", dropped).
			Msg("pruned aged history records")
	}
	return removed, nil
}

func sortedHashes(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
