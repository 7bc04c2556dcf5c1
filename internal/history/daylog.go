package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/dedup/internal/globaltime"
)

const dayLayout = "2006-01-02"

// DayLog partitions accepted records into one file per calendar day so the
// rolling fuzzy-match window can be loaded without reading full history.
type DayLog struct {
	dir    string
	prefix string
	logger zerolog.Logger
}

type dayFile struct {
	Date      string    `json:"date"`
	Records   []Record  `json:"articles"`
	Total     int       `json:"total_articles"`
	CreatedAt time.Time `json:"created_at"`
}

func NewDayLog(dir, prefix string, logger zerolog.Logger) *DayLog {
	return &DayLog{
		dir:    dir,
		prefix: prefix,
		logger: logger,
	}
}

func (d *DayLog) dayPath(day time.Time) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s_%s.json", d.prefix, day.Format(dayLayout)))
}

// AppendToday merges records into today's day file.
func (d *DayLog) AppendToday(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create day log directory %s: %w", d.dir, err)
	}

	today := globaltime.Today()
	path := d.dayPath(today)

	existing := d.loadDay(path)
	merged := append(existing, records...)

	f := dayFile{
		Date:      today.Format(dayLayout),
		Records:   merged,
		Total:     len(merged),
		CreatedAt: globaltime.UTC(),
	}
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal day file %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write day file %s: %w", path, err)
	}
	return nil
}

// LoadRecentDays returns the records of the last `days` calendar days,
// oldest day first. Unreadable day files are skipped; the window degrades
// rather than blocking the run.
func (d *DayLog) LoadRecentDays(days int) []Record {
	var records []Record
	today := globaltime.Today()
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		records = append(records, d.loadDay(d.dayPath(day))...)
	}
	return records
}

func (d *DayLog) loadDay(path string) []Record {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable day file")
		}
		return nil
	}
	var f dayFile
	if err := json.Unmarshal(raw, &f); err != nil {
		d.logger.Warn().Err(err).Str("path", path).Msg("skipping corrupt day file")
		return nil
	}
	return f.Records
}

// Prune deletes day files older than the retention horizon and returns the
// number removed. Files whose date cannot be parsed are left alone.
func (d *DayLog) Prune(retentionDays int) (int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read day log directory %s: %w", d.dir, err)
	}

	cutoff := globaltime.Today().AddDate(0, 0, -retentionDays)
	prefix := d.prefix + "_"
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		dateStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		day, err := time.Parse(dayLayout, dateStr)
		if err != nil {
			continue
		}
		if !day.Before(cutoff) {
			continue
		}
		path := filepath.Join(d.dir, name)
		if err := os.Remove(path); err != nil {
			d.logger.Warn().Err(err).Str("path", path).Msg("failed to remove old day file")
			continue
		}
		removed++
		d.logger.Info().Str("file", name).Msg("removed old day file")
	}
	return removed, nil
}
