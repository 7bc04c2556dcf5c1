// Package similarity scores fuzzy matches between article titles, URLs and
// content. Scores are always in [0, 1]; any computation failure degrades to
// 0 for that single comparison so a bad input never blocks a batch.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"horse.fit/dedup/internal/normalize"
)

const minContentLength = 20

type Engine struct {
	logger               zerolog.Logger
	hasContentSimilarity bool
}

// NewEngine builds a similarity engine. Content similarity is a capability
// resolved once at construction; when disabled the engine runs in hash-only
// degraded mode and ContentSimilarity always reports 0.
func NewEngine(logger zerolog.Logger, contentSimilarity bool) *Engine {
	return &Engine{
		logger:               logger,
		hasContentSimilarity: contentSimilarity,
	}
}

func (e *Engine) HasContentSimilarity() bool {
	return e != nil && e.hasContentSimilarity
}

// TitleSimilarity compares two headlines and returns the better of a
// longest-matching-blocks character ratio and a token Jaccard overlap.
func (e *Engine) TitleSimilarity(a, b string) float64 {
	left := normalize.Title(a)
	right := normalize.Title(b)
	if left == "" || right == "" {
		return 0
	}
	if left == right {
		return 1
	}

	seq := charSequenceRatio(left, right)
	jac := tokenJaccard(left, right)
	if jac > seq {
		return jac
	}
	return seq
}

// URLSimilarity compares two normalized URLs by character sequence ratio.
func (e *Engine) URLSimilarity(a, b string) float64 {
	left := normalize.URL(a)
	right := normalize.URL(b)
	if left == "" || right == "" {
		return 0
	}
	if left == right {
		return 1
	}
	return charSequenceRatio(left, right)
}

// ContentSimilarity builds TF-IDF vectors jointly over the two documents and
// returns their cosine similarity. Inputs shorter than 20 normalized
// characters score 0.
func (e *Engine) ContentSimilarity(a, b string) float64 {
	if !e.HasContentSimilarity() {
		return 0
	}

	left := normalize.Content(a)
	right := normalize.Content(b)
	if utf8.RuneCountInString(left) < minContentLength || utf8.RuneCountInString(right) < minContentLength {
		return 0
	}

	sim, err := tfidfCosine(left, right)
	if err != nil {
		e.logger.Debug().Err(err).Msg("content similarity degenerate input, scoring 0")
		return 0
	}
	return sim
}

// charSequenceRatio is the classic matching-blocks ratio: twice the total
// length of the common blocks over the combined length.
func charSequenceRatio(a, b string) float64 {
	left := []rune(a)
	right := []rune(b)
	total := len(left) + len(right)
	if total == 0 {
		return 0
	}
	matched := matchingBlocksLength(left, right, 0, len(left), 0, len(right))
	return 2 * float64(matched) / float64(total)
}

// matchingBlocksLength sums the lengths of common blocks by recursively
// splitting around the longest common substring of each region.
func matchingBlocksLength(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	matched := size
	matched += matchingBlocksLength(a, b, alo, i, blo, j)
	matched += matchingBlocksLength(a, b, i+size, ahi, j+size, bhi)
	return matched
}

func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo

	// lengths[j] holds the match length ending at (i-1, j-1) from the
	// previous row of the implicit DP table.
	lengths := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := lengths[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		lengths = next
	}
	return besti, bestj, bestsize
}

func tokenJaccard(a, b string) float64 {
	left := fieldSet(a)
	right := fieldSet(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	intersection := 0
	for token := range left {
		if _, ok := right[token]; ok {
			intersection++
		}
	}
	union := len(left) + len(right) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func fieldSet(text string) map[string]struct{} {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
