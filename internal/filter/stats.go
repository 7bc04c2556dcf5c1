package filter

import (
	"horse.fit/dedup/internal/article"
	"horse.fit/dedup/internal/normalize"
)

// DuplicateDetail records one blocked article for the run summary.
type DuplicateDetail struct {
	Title      string  `json:"title"`
	Source     string  `json:"source,omitempty"`
	URL        string  `json:"url,omitempty"`
	Method     Method  `json:"method"`
	Confidence float64 `json:"confidence"`
}

// Stats tabulates one batch (or one whole run after merging).
type Stats struct {
	TotalChecked    int               `json:"total_checked"`
	UniqueCount     int               `json:"unique_count"`
	DuplicatesFound int               `json:"duplicates_found"`
	TimeFiltered    int               `json:"time_filtered"`
	ByMethod        map[Method]int    `json:"by_method"`
	Details         []DuplicateDetail `json:"duplicate_details,omitempty"`
	Degraded        bool              `json:"degraded,omitempty"`
}

func NewStats(total int) Stats {
	return Stats{TotalChecked: total, ByMethod: make(map[Method]int)}
}

// AddDuplicate counts one blocked article under its detection method.
func (s *Stats) AddDuplicate(a article.Article, v Verdict) {
	s.DuplicatesFound++
	s.ByMethod[v.Method]++
	s.Details = append(s.Details, DuplicateDetail{
		Title:      normalize.TruncateRunes(a.Title, 100),
		Source:     a.Source,
		URL:        a.URL,
		Method:     v.Method,
		Confidence: v.Confidence,
	})
}

// Reclassify moves one previously accepted article into the duplicate
// partition. The consolidator uses it so the accounting invariant holds
// after its final pass.
func (s *Stats) Reclassify(a article.Article, v Verdict) {
	s.UniqueCount--
	s.AddDuplicate(a, v)
}

// Merge folds another batch's stats into this one.
func (s *Stats) Merge(other Stats) {
	s.TotalChecked += other.TotalChecked
	s.UniqueCount += other.UniqueCount
	s.DuplicatesFound += other.DuplicatesFound
	s.TimeFiltered += other.TimeFiltered
	if s.ByMethod == nil {
		s.ByMethod = make(map[Method]int)
	}
	for method, count := range other.ByMethod {
		s.ByMethod[method] += count
	}
	s.Details = append(s.Details, other.Details...)
	s.Degraded = s.Degraded || other.Degraded
}

// Consistent reports whether every checked article is accounted for across
// the three partitions.
func (s Stats) Consistent() bool {
	return s.UniqueCount+s.DuplicatesFound+s.TimeFiltered == s.TotalChecked
}
