package article

import (
	"strings"
	"time"

	"horse.fit/dedup/internal/normalize"
)

// Article is one fetched news record. There is no stable external
// identifier; identity is inferred downstream from normalized URL and title.
type Article struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description,omitempty"`
	Source      string     `json:"source"`
	Category    string     `json:"category,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
}

// Content returns the text used for content-level comparison.
func (a Article) Content() string {
	return strings.TrimSpace(a.Title + " " + a.Description)
}

// GroupBySource partitions a batch by sanitized source label, the same form
// the history stores use for file names. Articles without a source fall into
// the "unknown" group. Order inside each group follows batch order.
func GroupBySource(batch []Article) map[string][]Article {
	groups := make(map[string][]Article)
	for _, a := range batch {
		source := normalize.SourceName(a.Source)
		groups[source] = append(groups[source], a)
	}
	return groups
}
