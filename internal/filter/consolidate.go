package filter

import (
	"github.com/rs/zerolog"

	"horse.fit/dedup/internal/article"
	"horse.fit/dedup/internal/normalize"
	"horse.fit/dedup/internal/registry"
)

// Consolidate is the final idempotence pass: every surviving article's
// compact hash is re-checked against the registry and then registered. An
// article whose hash was already persisted by an earlier run is dropped,
// which closes any gap left by ingestion paths that bypass the per-source
// history stores. Hashes first registered by the current process are the
// pipeline's own acceptances and pass through.
func Consolidate(articles []article.Article, reg *registry.Registry, logger zerolog.Logger) (kept, dropped []article.Article) {
	seen := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		hash := registry.ComputeHash(a)

		if _, dup := seen[hash]; dup {
			dropped = append(dropped, a)
			continue
		}
		if reg.Contains(hash) && !reg.AddedThisRun(hash) {
			dropped = append(dropped, a)
			logger.Debug().
				Str("hash", hash).
				Str("title", normalize.TruncateRunes(a.Title, 60)).
				Msg("consolidation dropped cross-run duplicate")
			continue
		}

		reg.Add(hash)
		seen[hash] = struct{}{}
		kept = append(kept, a)
	}

	if len(dropped) > 0 {
		logger.Info().
			Int("kept", len(kept)).
			Int("dropped", len(dropped)).
			Msg("cross-run consolidation complete")
	}
	return kept, dropped
}
