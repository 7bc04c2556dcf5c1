// Package normalize holds the pure text canonicalization used for article
// identity. Two articles differing only by URL trailing slash or query
// string, or by title case and known boilerplate, normalize identically.
package normalize

import (
	"regexp"
	"strings"
)

var titlePrefixes = []string{
	"breaking:", "exclusive:", "update:", "news:", "latest:", "urgent:",
	"live:", "developing:", "alert:", "report:", "analysis:",
}

var titleSuffixes = []string{
	"- live updates", "- breaking news", "- latest news", "- report",
	"| reuters", "| bbc", "| cnn", "| times", "| news",
}

var (
	urlQueryFragmentRe = regexp.MustCompile(`[?#].*$`)
	urlIndexFileRe     = regexp.MustCompile(`/index\.(html?|php)$`)
	// Word characters in any script survive; Go's \w is ASCII-only.
	urlSpecialCharsRe = regexp.MustCompile(`[^\p{L}\p{N}_\-./]`)

	punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	linkRe        = regexp.MustCompile(`https?://\S+`)
	emailRe       = regexp.MustCompile(`\S+@\S+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)

	sourceNameRe = regexp.MustCompile(`[^a-z0-9 _-]`)
)

// URL canonicalizes a URL for comparison: scheme, www prefix, query,
// fragment, trailing slash and index files are all identity-irrelevant.
func URL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if u == "" {
		return ""
	}

	for _, prefix := range []string{"https://", "http://", "www."} {
		u = strings.TrimPrefix(u, prefix)
	}

	u = urlQueryFragmentRe.ReplaceAllString(u, "")
	u = strings.TrimSuffix(u, "/")
	u = urlIndexFileRe.ReplaceAllString(u, "")
	u = urlSpecialCharsRe.ReplaceAllString(u, "")

	return u
}

// Title canonicalizes a headline: case, enumerated boilerplate prefixes and
// suffixes, punctuation and whitespace runs are all identity-irrelevant.
func Title(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return ""
	}

	for _, prefix := range titlePrefixes {
		if strings.HasPrefix(t, prefix) {
			t = strings.TrimSpace(strings.TrimPrefix(t, prefix))
		}
	}
	for _, suffix := range titleSuffixes {
		if strings.HasSuffix(t, suffix) {
			t = strings.TrimSpace(strings.TrimSuffix(t, suffix))
		}
	}

	t = punctuationRe.ReplaceAllString(t, " ")
	t = whitespaceRe.ReplaceAllString(t, " ")

	return strings.TrimSpace(t)
}

// Content canonicalizes body text: HTML tags, links, email addresses,
// punctuation and whitespace runs are stripped.
func Content(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return ""
	}

	c = htmlTagRe.ReplaceAllString(c, "")
	c = linkRe.ReplaceAllString(c, "")
	c = emailRe.ReplaceAllString(c, "")
	c = punctuationRe.ReplaceAllString(c, " ")
	c = whitespaceRe.ReplaceAllString(c, " ")

	return strings.TrimSpace(c)
}

// SourceName sanitizes a source label into a filesystem-safe identifier.
func SourceName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = sourceNameRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return "unknown"
	}
	return s
}

// TruncateRunes caps a string at n runes. Hash inputs truncate titles so a
// long headline keeps a stable identity prefix.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
