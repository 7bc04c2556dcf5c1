// Package registry persists the compact-hash identity set that backs exact
// duplicate detection across runs. The on-disk format is one sorted
// 8-hex-character hash per line.
package registry

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/dedup/internal/article"
	"horse.fit/dedup/internal/normalize"
)

const (
	compactHashLength = 8
	maxTitleHashRunes = 100
)

// Registry is the persisted set of compact identity hashes. Insertion order
// is tracked explicitly so overflow eviction removes the genuinely oldest
// entries rather than arbitrary set members.
type Registry struct {
	path      string
	maxHashes int
	logger    zerolog.Logger

	set     map[string]struct{}
	order   []string
	session map[string]struct{}

	degraded bool
}

// New loads the registry from path. An unreadable or corrupt file fails
// open: the registry starts empty, logs a warning and keeps running.
func New(path string, maxHashes int, logger zerolog.Logger) *Registry {
	r := &Registry{
		path:      path,
		maxHashes: maxHashes,
		logger:    logger,
		set:       make(map[string]struct{}),
		session:   make(map[string]struct{}),
	}
	r.load()
	return r
}

func (r *Registry) load() {
	f, err := os.Open(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.degraded = true
			r.logger.Warn().Err(err).Str("path", r.path).
				Msg("failed to load compact hash registry, starting empty")
		}
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		hash := strings.TrimSpace(scanner.Text())
		if hash == "" {
			continue
		}
		if _, exists := r.set[hash]; exists {
			continue
		}
		r.set[hash] = struct{}{}
		r.order = append(r.order, hash)
	}
	if err := scanner.Err(); err != nil {
		r.degraded = true
		r.set = make(map[string]struct{})
		r.order = nil
		r.logger.Warn().Err(err).Str("path", r.path).
			Msg("compact hash registry unreadable, starting empty")
		return
	}

	r.logger.Info().
		Int("hashes", len(r.set)).
		Int("max_hashes", r.maxHashes).
		Str("path", r.path).
		Msg("compact hash registry loaded")
}

// Contains reports whether hash is registered. O(1).
func (r *Registry) Contains(hash string) bool {
	_, ok := r.set[hash]
	return ok
}

// Add registers a hash and marks it as added this run. Registered hashes
// are never individually removed, only bulk-evicted on save when the
// registry overflows.
func (r *Registry) Add(hash string) {
	r.session[hash] = struct{}{}
	r.Record(hash)
}

// Record registers a hash without marking it in the current run's session,
// so later same-run lookups still see it as prior state.
func (r *Registry) Record(hash string) {
	if _, exists := r.set[hash]; exists {
		return
	}
	r.set[hash] = struct{}{}
	r.order = append(r.order, hash)
}

// AddedThisRun reports whether hash was registered during the current run.
// The filter layers use it to tell a cross-run duplicate from an article the
// current run just processed.
func (r *Registry) AddedThisRun(hash string) bool {
	_, ok := r.session[hash]
	return ok
}

// BeginRun starts a new run: hashes registered so far count as prior state
// for AddedThisRun. Long-lived callers invoke it before each batch run;
// a freshly constructed registry is already at the start of a run.
func (r *Registry) BeginRun() {
	r.session = make(map[string]struct{})
}

// Save writes the registry as sorted unique hashes, evicting the oldest
// entries first when the set exceeds maxHashes.
func (r *Registry) Save() error {
	if len(r.order) > r.maxHashes {
		evicted := len(r.order) - r.maxHashes
		for _, hash := range r.order[:evicted] {
			delete(r.set, hash)
		}
		r.order = append([]string(nil), r.order[evicted:]...)
		r.logger.Info().
			Int("evicted", evicted).
			Int("kept", len(r.order)).
			Msg("compact hash registry trimmed to max size")
	}

	sorted := make([]string, 0, len(r.set))
	for hash := range r.set {
		sorted = append(sorted, hash)
	}
	sort.Strings(sorted)

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create registry directory %s: %w", dir, err)
		}
	}

	var b strings.Builder
	for _, hash := range sorted {
		b.WriteString(hash)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(r.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write compact hash registry %s: %w", r.path, err)
	}
	return nil
}

// Len returns the number of registered hashes.
func (r *Registry) Len() int {
	return len(r.set)
}

// Degraded reports whether the registry fell back to an empty set because
// its backing file could not be read.
func (r *Registry) Degraded() bool {
	return r.degraded
}

// ComputeHash derives the compact identity token for an article: the first
// 8 hex characters of SHA-256 over normalized URL and truncated normalized
// title.
func ComputeHash(a article.Article) string {
	signature := normalize.URL(a.URL) + "|" + normalize.TruncateRunes(normalize.Title(a.Title), maxTitleHashRunes)
	sum := sha256.Sum256([]byte(signature))
	return hex.EncodeToString(sum[:])[:compactHashLength]
}
