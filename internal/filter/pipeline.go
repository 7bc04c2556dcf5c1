package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/dedup/internal/article"
	"horse.fit/dedup/internal/globaltime"
	"horse.fit/dedup/internal/history"
	"horse.fit/dedup/internal/normalize"
	"horse.fit/dedup/internal/registry"
	"horse.fit/dedup/internal/similarity"
)

// Method identifies the filter layer that produced a duplicate verdict.
type Method string

const (
	MethodCompactHash       Method = "compact_hash_match"
	MethodURLExact          Method = "url_exact"
	MethodURLSimilarity     Method = "url_similarity"
	MethodTitleExact        Method = "title_exact"
	MethodTitleFuzzy        Method = "title_fuzzy"
	MethodContentHash       Method = "content_hash"
	MethodContentSimilarity Method = "content_similarity"
)

// Verdict is the outcome of checking one article against prior state.
type Verdict struct {
	IsDuplicate bool
	Method      Method
	Confidence  float64
}

// Options tune the individual filter layers. Scores at or above a threshold
// count as matches. Zero TimeWindow disables the recency filter entirely.
type Options struct {
	URLSimilarityThreshold     float64
	FuzzyTitleThreshold        float64
	ContentSimilarityThreshold float64
	FuzzyTitleWindow           int
	ContentWindow              int
	TimeWindow                 time.Duration

	// Cutoff for titles from other sources in the same run. Stricter than
	// the per-source fuzzy cutoff; zero falls back to it.
	CrossSourceTitleThreshold float64
}

// Pipeline runs articles through the ordered duplicate checks, short-circuiting
// on the first layer that flags a match.
type Pipeline struct {
	registry *registry.Registry
	engine   *similarity.Engine
	opts     Options
	logger   zerolog.Logger
}

func NewPipeline(reg *registry.Registry, engine *similarity.Engine, opts Options, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		registry: reg,
		engine:   engine,
		opts:     opts,
		logger:   logger.With().Str("component", "filter").Logger(),
	}
}

// Session carries the accepted articles of one run across multiple Run calls,
// so articles from different source groups still see each other.
type Session struct {
	accepted []candidate
}

func NewSession() *Session {
	return &Session{}
}

// Result is what one Run produced.
type Result struct {
	Unique     []article.Article
	Duplicates []article.Article
	NewRecords []history.Record
	Stats      Stats
}

// candidate caches the derived forms of an article so each layer does not
// re-normalize.
type candidate struct {
	title       string
	url         string
	content     string
	normURL     string
	normTitle   string
	urlHash     string
	titleHash   string
	contentHash string
}

func newCandidate(a article.Article) candidate {
	normURL := normalize.URL(a.URL)
	normTitle := normalize.Title(a.Title)
	return candidate{
		title:       a.Title,
		url:         a.URL,
		content:     a.Content(),
		normURL:     normURL,
		normTitle:   normTitle,
		urlHash:     hashHex(normURL),
		titleHash:   hashHex(normTitle),
		contentHash: ContentHash(a),
	}
}

// Run checks batch against store and the session's already-accepted articles.
// extra records are folded into the comparison window ahead of the store's
// recent records. Unique articles are appended to store and registered; a nil
// session scopes acceptance to this call only.
func (p *Pipeline) Run(batch []article.Article, store *history.Store, extra []history.Record, session *Session) Result {
	if session == nil {
		session = NewSession()
	}
	stats := NewStats(len(batch))
	stats.Degraded = p.registry.Degraded() || store.Degraded()

	window := make([]history.Record, 0, len(extra))
	window = append(window, extra...)
	n := p.opts.FuzzyTitleWindow
	if p.opts.ContentWindow > n {
		n = p.opts.ContentWindow
	}
	window = append(window, store.RecentWindow(n)...)
	window = tailRecords(window, n)

	var res Result
	for _, a := range batch {
		if p.opts.TimeWindow > 0 && !withinWindow(a.PublishedAt, p.opts.TimeWindow) {
			stats.TimeFiltered++
			p.logger.Debug().Str("title", a.Title).Msg("outside time window")
			continue
		}
		c := newCandidate(a)
		v := p.check(a, c, window, session.accepted, store)
		if v.IsDuplicate {
			stats.AddDuplicate(a, v)
			// Record the duplicate's signature too, so a later run
			// recognizes it without redoing the similarity work. Only
			// accepted articles count as added this run.
			p.registry.Record(registry.ComputeHash(a))
			res.Duplicates = append(res.Duplicates, a)
			p.logger.Debug().
				Str("title", a.Title).
				Str("method", string(v.Method)).
				Float64("confidence", v.Confidence).
				Msg("duplicate")
			continue
		}
		rec := history.Record{
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			ContentHash: c.contentHash,
			AddedAt:     globaltime.UTC(),
		}
		store.Append(rec, c.urlHash, c.titleHash)
		p.registry.Add(registry.ComputeHash(a))
		session.accepted = append(session.accepted, c)
		stats.UniqueCount++
		res.Unique = append(res.Unique, a)
		res.NewRecords = append(res.NewRecords, rec)
	}
	res.Stats = stats
	return res
}

// check walks the layers in order and returns the first duplicate verdict.
func (p *Pipeline) check(a article.Article, c candidate, window []history.Record, accepted []candidate, store *history.Store) Verdict {
	// Signatures registered by earlier runs. Matches from the current run
	// fall through to the finer-grained layers below.
	if h := registry.ComputeHash(a); p.registry.Contains(h) && !p.registry.AddedThisRun(h) {
		return Verdict{IsDuplicate: true, Method: MethodCompactHash, Confidence: 1}
	}

	if store.HasURLHash(c.urlHash) {
		return Verdict{IsDuplicate: true, Method: MethodURLExact, Confidence: 1}
	}
	for _, prev := range accepted {
		if prev.urlHash == c.urlHash {
			return Verdict{IsDuplicate: true, Method: MethodURLExact, Confidence: 1}
		}
	}
	for _, prev := range accepted {
		if p.engine.URLSimilarity(c.url, prev.url) >= p.opts.URLSimilarityThreshold {
			return Verdict{IsDuplicate: true, Method: MethodURLSimilarity, Confidence: 1}
		}
	}
	for _, r := range window {
		if p.engine.URLSimilarity(c.url, r.URL) >= p.opts.URLSimilarityThreshold {
			return Verdict{IsDuplicate: true, Method: MethodURLSimilarity, Confidence: 1}
		}
	}

	if store.HasTitleHash(c.titleHash) {
		return Verdict{IsDuplicate: true, Method: MethodTitleExact, Confidence: 1}
	}
	for _, prev := range accepted {
		if prev.titleHash == c.titleHash {
			return Verdict{IsDuplicate: true, Method: MethodTitleExact, Confidence: 1}
		}
	}

	// Windows are built oldest first; comparisons keep the newest records.
	fuzzyWindow := tailRecords(window, p.opts.FuzzyTitleWindow)
	crossThreshold := p.opts.CrossSourceTitleThreshold
	if crossThreshold == 0 {
		crossThreshold = p.opts.FuzzyTitleThreshold
	}
	for _, prev := range accepted {
		if s := p.engine.TitleSimilarity(c.title, prev.title); s >= crossThreshold {
			return Verdict{IsDuplicate: true, Method: MethodTitleFuzzy, Confidence: s}
		}
	}
	for _, r := range fuzzyWindow {
		if s := p.engine.TitleSimilarity(c.title, r.Title); s >= p.opts.FuzzyTitleThreshold {
			return Verdict{IsDuplicate: true, Method: MethodTitleFuzzy, Confidence: s}
		}
	}

	for _, prev := range accepted {
		if prev.contentHash == c.contentHash {
			return Verdict{IsDuplicate: true, Method: MethodContentHash, Confidence: 1}
		}
	}
	for _, r := range window {
		if r.ContentHash != "" && r.ContentHash == c.contentHash {
			return Verdict{IsDuplicate: true, Method: MethodContentHash, Confidence: 1}
		}
	}

	contentWindow := tailRecords(window, p.opts.ContentWindow)
	for _, prev := range accepted {
		if s := p.engine.ContentSimilarity(c.content, prev.content); s >= p.opts.ContentSimilarityThreshold {
			return Verdict{IsDuplicate: true, Method: MethodContentSimilarity, Confidence: s}
		}
	}
	for _, r := range contentWindow {
		// History records carry no description, so only the title text
		// is available on this side of the comparison.
		if s := p.engine.ContentSimilarity(c.content, r.Title); s >= p.opts.ContentSimilarityThreshold {
			return Verdict{IsDuplicate: true, Method: MethodContentSimilarity, Confidence: s}
		}
	}

	return Verdict{}
}

// tailRecords keeps the newest n records of an oldest-first slice.
func tailRecords(records []history.Record, n int) []history.Record {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

func withinWindow(published *time.Time, window time.Duration) bool {
	if published == nil {
		return true
	}
	now := globaltime.Now().UTC()
	t := published.UTC()
	if t.After(now) {
		return true
	}
	return now.Sub(t) <= window
}

// ContentHash fingerprints an article's normalized title and description.
// Unlike the registry's compact hash it ignores the URL, so the same story
// republished under a different link still collides.
func ContentHash(a article.Article) string {
	return hashHex(fmt.Sprintf("%s|%s", normalize.Title(a.Title), normalize.Content(a.Description)))
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
