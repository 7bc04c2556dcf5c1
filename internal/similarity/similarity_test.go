package similarity

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T, contentSimilarity bool) *Engine {
	t.Helper()
	return NewEngine(zerolog.Nop(), contentSimilarity)
}

func TestTitleSimilarityExactAfterNormalization(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, true)
	got := e.TitleSimilarity("Breaking: X Happens", "BREAKING: X Happens")
	if got != 1 {
		t.Fatalf("expected 1.0 for boilerplate/case variants, got %g", got)
	}
}

func TestTitleSimilarityRange(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, true)
	cases := []struct {
		name string
		a, b string
	}{
		{"identical", "markets rally on fed decision", "markets rally on fed decision"},
		{"near duplicate", "markets rally on fed decision", "markets rally after fed decision"},
		{"unrelated", "markets rally on fed decision", "volcano erupts in iceland"},
		{"empty left", "", "anything"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := e.TitleSimilarity(tc.a, tc.b)
			if got < 0 || got > 1 {
				t.Fatalf("similarity %g outside [0,1]", got)
			}
		})
	}
}

func TestTitleSimilarityOrdering(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, true)
	near := e.TitleSimilarity(
		"markets rally on fed decision",
		"markets rally after fed decision",
	)
	far := e.TitleSimilarity(
		"markets rally on fed decision",
		"volcano erupts in iceland",
	)
	if near <= far {
		t.Fatalf("expected near (%g) > far (%g)", near, far)
	}
	if near < 0.80 {
		t.Fatalf("expected near-duplicate titles above fuzzy cutoff, got %g", near)
	}
	if far >= 0.80 {
		t.Fatalf("expected unrelated titles below fuzzy cutoff, got %g", far)
	}
}

func TestTitleSimilarityJaccardDominatesOnReordering(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, true)
	got := e.TitleSimilarity("fed decision rallies markets", "markets rallies fed decision")
	if got != 1 {
		t.Fatalf("expected token overlap to score reordered titles 1.0, got %g", got)
	}
}

func TestURLSimilarity(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, true)
	if got := e.URLSimilarity("https://x.com/story", "https://www.x.com/story/"); got != 1 {
		t.Fatalf("expected 1.0 for normalized-equal URLs, got %g", got)
	}

	near := e.URLSimilarity("https://x.com/story-part-one", "https://x.com/story-part-two")
	if near < 0.80 || near >= 1 {
		t.Fatalf("expected high but non-exact URL similarity, got %g", near)
	}

	far := e.URLSimilarity("https://x.com/story", "https://other.org/completely/different")
	if far >= 0.90 {
		t.Fatalf("expected unrelated URLs below cutoff, got %g", far)
	}
}

func TestContentSimilarityIdentical(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, true)
	doc := "A major technology company has announced a revolutionary new product."
	got := e.ContentSimilarity(doc, doc)
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected cosine 1.0 for identical docs, got %g", got)
	}
}

const sharedProductStory = "The device pairs a folding display with a custom chip, " +
	"promising double the battery life of rival flagship phones while keeping " +
	"the launch price unchanged for early buyers. Analysts expect the " +
	"announcement to reshape the premium segment, with carriers preparing " +
	"aggressive trade-in offers and accessory makers racing to ship compatible " +
	"cases before the holiday quarter."

func TestContentSimilarityOverlappingDescriptions(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, true)
	a := "Tech Giant Reveals Revolutionary Product " + sharedProductStory
	b := "Major Tech Company Announces New Product " + sharedProductStory

	overlapping := e.ContentSimilarity(a, b)
	unrelated := e.ContentSimilarity(a,
		"Volcano Erupts In Iceland Lava flows forced hundreds of residents to evacuate coastal villages overnight.")

	if overlapping < 0.75 {
		t.Fatalf("expected overlapping stories at or above cutoff, got %g", overlapping)
	}
	if unrelated >= 0.75 {
		t.Fatalf("expected unrelated stories below cutoff, got %g", unrelated)
	}
}

func TestContentSimilarityShortInput(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, true)
	if got := e.ContentSimilarity("too short", "also short"); got != 0 {
		t.Fatalf("expected 0 for short inputs, got %g", got)
	}
}

func TestContentSimilarityDegenerateInput(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, true)
	// Long enough but entirely stop words: the vectorizer has no terms.
	got := e.ContentSimilarity(
		"the and of to in that it with as for on was",
		"the and of to in that it with as for on was",
	)
	if got != 0 {
		t.Fatalf("expected 0 for stop-word-only input, got %g", got)
	}
}

func TestContentSimilarityDisabledEngine(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, false)
	doc := "A major technology company has announced a revolutionary new product."
	if got := e.ContentSimilarity(doc, doc); got != 0 {
		t.Fatalf("expected 0 in hash-only degraded mode, got %g", got)
	}
	if e.HasContentSimilarity() {
		t.Fatal("expected HasContentSimilarity to report false")
	}
}

func TestCharSequenceRatio(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "abcd", "abcd", 1},
		{"disjoint", "abc", "xyz", 0},
		{"classic", "abcd", "bcde", 0.75},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := charSequenceRatio(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("charSequenceRatio(%q, %q) = %g, want %g", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestTokenJaccard(t *testing.T) {
	t.Parallel()

	if got := tokenJaccard("a b c", "b c d"); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("tokenJaccard = %g, want 0.5", got)
	}
	if got := tokenJaccard("", "a"); got != 0 {
		t.Fatalf("tokenJaccard with empty input = %g, want 0", got)
	}
}
