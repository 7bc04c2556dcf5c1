// Package runner wires the registry, history stores and filter pipeline
// into whole-batch runs. The CLI and the HTTP server both drive it, so a
// run is serialized behind a mutex and always ends with a persisted
// registry and history state.
package runner

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/dedup/internal/article"
	"horse.fit/dedup/internal/config"
	"horse.fit/dedup/internal/filter"
	"horse.fit/dedup/internal/history"
	"horse.fit/dedup/internal/registry"
	"horse.fit/dedup/internal/similarity"
)

const (
	registryFileName = "compact_hashes.txt"
	historySubdir    = "history"
	apiStoreName     = "newsapi_global"
	apiDayPrefix     = "newsapi"
)

type Runner struct {
	cfg    *config.Config
	logger zerolog.Logger

	mu     sync.Mutex
	reg    *registry.Registry
	engine *similarity.Engine
}

// Report is the outcome of one whole-batch run.
type Report struct {
	Unique []article.Article `json:"unique_articles"`
	Stats  filter.Stats      `json:"stats"`
}

// Snapshot summarizes persisted state for reporting endpoints.
type Snapshot struct {
	RegistryHashes   int             `json:"registry_hashes"`
	RegistryDegraded bool            `json:"registry_degraded,omitempty"`
	Stores           []history.Stats `json:"stores"`
}

func New(cfg *config.Config, logger zerolog.Logger) *Runner {
	log := logger.With().Str("component", "runner").Logger()
	return &Runner{
		cfg:    cfg,
		logger: log,
		reg:    registry.New(filepath.Join(cfg.DataDir, registryFileName), cfg.MaxHashes, log),
		engine: similarity.NewEngine(log, cfg.ContentSimilarityEnabled),
	}
}

func (r *Runner) historyDir() string {
	return filepath.Join(r.cfg.DataDir, historySubdir)
}

func (r *Runner) pipelineOptions(timeWindow time.Duration) filter.Options {
	return filter.Options{
		URLSimilarityThreshold:     r.cfg.URLSimilarityThreshold,
		FuzzyTitleThreshold:        r.cfg.FuzzyTitleThreshold,
		ContentSimilarityThreshold: r.cfg.ContentSimilarityThreshold,
		CrossSourceTitleThreshold:  r.cfg.TitleSimilarityThreshold,
		FuzzyTitleWindow:           r.cfg.FuzzyTitleWindow,
		ContentWindow:              r.cfg.ContentWindow,
		TimeWindow:                 timeWindow,
	}
}

// FilterBatch runs batch through the full pipeline and the final
// consolidation pass, persists the updated state, and reports what
// survived. Articles from API-family sources share one store and are held
// to the recency window; every other source gets its own store.
func (r *Runner) FilterBatch(batch []article.Article) Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reg.BeginRun()
	session := filter.NewSession()
	historyDir := r.historyDir()

	apiSources := make(map[string]struct{})
	for _, s := range r.cfg.APISourcesList() {
		apiSources[s] = struct{}{}
	}

	groups := article.GroupBySource(batch)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	apiPipeline := filter.NewPipeline(r.reg, r.engine,
		r.pipelineOptions(time.Duration(r.cfg.TimeWindowHours)*time.Hour), r.logger)
	sourcePipeline := filter.NewPipeline(r.reg, r.engine, r.pipelineOptions(0), r.logger)

	dayLog := history.NewDayLog(historyDir, apiDayPrefix, r.logger)
	var (
		apiStore      *history.Store
		apiDayWindow  []history.Record
		apiNewRecords []history.Record
		stores        []*history.Store
		unique        []article.Article
	)
	stats := filter.NewStats(0)

	for _, name := range names {
		group := groups[name]

		var res filter.Result
		if _, isAPI := apiSources[name]; isAPI {
			if apiStore == nil {
				apiStore = history.Open(historyDir, apiStoreName, r.cfg.APIHistoryCap, r.logger)
				stores = append(stores, apiStore)
				// The fuzzy-match window spans the full day-log retention,
				// not just the publication recency horizon.
				apiDayWindow = dayLog.LoadRecentDays(r.cfg.APIRetentionDays)
			}
			res = apiPipeline.Run(group, apiStore, apiDayWindow, session)
			apiNewRecords = append(apiNewRecords, res.NewRecords...)
		} else {
			store := history.Open(historyDir, name, r.cfg.SourceHistoryCap, r.logger)
			stores = append(stores, store)
			res = sourcePipeline.Run(group, store, nil, session)
		}

		stats.Merge(res.Stats)
		unique = append(unique, res.Unique...)
	}

	kept, dropped := filter.Consolidate(unique, r.reg, r.logger)
	for _, a := range dropped {
		stats.Reclassify(a, filter.Verdict{IsDuplicate: true, Method: filter.MethodCompactHash, Confidence: 1})
	}

	if err := r.reg.Save(); err != nil {
		stats.Degraded = true
		r.logger.Error().Err(err).Msg("failed to save registry")
	}
	for _, store := range stores {
		if err := store.Save(); err != nil {
			stats.Degraded = true
			r.logger.Error().Err(err).Str("source", store.Source()).Msg("failed to save history store")
		}
	}
	if err := dayLog.AppendToday(apiNewRecords); err != nil {
		stats.Degraded = true
		r.logger.Error().Err(err).Msg("failed to append day log")
	}

	summary := r.logger.Info().
		Int("total", stats.TotalChecked).
		Int("unique", stats.UniqueCount).
		Int("duplicates", stats.DuplicatesFound).
		Int("time_filtered", stats.TimeFiltered)
	if stats.Degraded {
		summary = summary.Bool("degraded", true)
	}
	summary.Msg("batch filtered")

	return Report{Unique: kept, Stats: stats}
}

// Snapshot reports registry and per-store state without mutating anything.
func (r *Runner) Snapshot() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		RegistryHashes:   r.reg.Len(),
		RegistryDegraded: r.reg.Degraded(),
	}

	historyDir := r.historyDir()
	sources, err := history.ListSources(historyDir)
	if err != nil {
		return snap, err
	}
	for _, source := range sources {
		recordCap := r.cfg.SourceHistoryCap
		if source == apiStoreName {
			recordCap = r.cfg.APIHistoryCap
		}
		store := history.Open(historyDir, source, recordCap, r.logger)
		snap.Stores = append(snap.Stores, store.Stats())
	}
	return snap, nil
}

// Prune applies the retention policy: aged per-source records and expired
// API day files are dropped.
func (r *Runner) Prune() (recordsDropped, dayFilesRemoved int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	historyDir := r.historyDir()
	recordsDropped, err = history.PruneStores(historyDir, r.cfg.SourceRetentionDays, r.logger)
	if err != nil {
		return 0, 0, err
	}
	dayLog := history.NewDayLog(historyDir, apiDayPrefix, r.logger)
	dayFilesRemoved, err = dayLog.Prune(r.cfg.APIRetentionDays)
	if err != nil {
		return recordsDropped, 0, err
	}
	return recordsDropped, dayFilesRemoved, nil
}
