// Package opendigger reads OpenDigger metric files, either from the live
// HTTP API or from an offline copy, and aggregates them into RepoMetrics.
package opendigger

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// Metric file names, shared by the API and the offline layout.
const (
	MetricActive   = "active_dates_and_times"
	MetricOpenRank = "openrank"
	MetricIssues   = "issues_new"
	MetaFile       = "meta"

	monthLayout = "2006-01"
	// daysPerMonth caps how many daily values a month contributes.
	daysPerMonth = 30
	// DefaultWindow is the activity look-back window.
	DefaultWindow = 90 * 24 * time.Hour
)

// Raw holds the decoded metric files of one repository. A nil map means the
// file was absent.
type Raw struct {
	Active   map[string]json.RawMessage
	OpenRank map[string]json.RawMessage
	Issues   map[string]json.RawMessage
	Meta     *Meta
}

// Meta is the optional descriptive file.
type Meta struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Languages   []string `json:"languages"`
	Topics      []string `json:"topics"`
}

// Empty reports whether none of the metric files were present.
func (r Raw) Empty() bool {
	return r.Active == nil && r.OpenRank == nil && r.Issues == nil
}

// Aggregate folds raw into a RepoMetrics using the activity window ending
// at now. Keys that are not YYYY-MM months (e.g. "2021-10-raw") are ignored.
func Aggregate(repoID string, raw Raw, now time.Time, window time.Duration) model.RepoMetrics {
	if window <= 0 {
		window = DefaultWindow
	}
	start := now.Add(-window)
	cutoff := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	m := model.RepoMetrics{RepoID: repoID, Name: repoID}

	var activeDays int
	var peak float64
	for key, msg := range raw.Active {
		month, ok := parseMonth(key)
		if !ok || month.Before(cutoff) {
			continue
		}
		var daily []float64
		if err := json.Unmarshal(msg, &daily); err != nil {
			continue
		}
		if len(daily) > daysPerMonth {
			daily = daily[:daysPerMonth]
		}
		for _, v := range daily {
			if v > 0 {
				activeDays++
			}
			peak = math.Max(peak, v)
		}
	}
	m.ActiveDays90 = activeDays
	m.DailyPeakActivity = peak

	var issues float64
	for key, msg := range raw.Issues {
		month, ok := parseMonth(key)
		if !ok || month.Before(cutoff) {
			continue
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err == nil && v > 0 {
			issues += v
		}
	}
	m.IssuesNew90 = int(math.Round(issues))

	for key, msg := range raw.OpenRank {
		if _, ok := parseMonth(key); !ok {
			continue
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err != nil {
			continue
		}
		m.OpenRankSeries = append(m.OpenRankSeries, model.OpenRankPoint{Period: key, Value: v})
	}
	sort.Slice(m.OpenRankSeries, func(i, j int) bool {
		return m.OpenRankSeries[i].Period < m.OpenRankSeries[j].Period
	})

	var meta model.RepoMeta
	if raw.Meta != nil {
		meta = model.RepoMeta{
			Name:        raw.Meta.Name,
			Description: raw.Meta.Description,
			Languages:   metaLanguages(raw.Meta),
			Topics:      raw.Meta.Topics,
		}
	}
	ApplyMeta(&m, meta)
	return m.Sanitize()
}

// ApplyMeta copies descriptive fields into m and derives keywords from the
// topics, the description and the name.
func ApplyMeta(m *model.RepoMetrics, meta model.RepoMeta) {
	if meta.Name != "" {
		m.Name = meta.Name
	}
	if meta.Description != "" {
		m.Description = meta.Description
	}
	if len(meta.Languages) > 0 {
		m.Languages = append([]string(nil), meta.Languages...)
	}
	kw := append([]string(nil), m.Keywords...)
	kw = append(kw, meta.Topics...)
	kw = append(kw, Words(m.Description)...)
	kw = append(kw, Words(m.Name)...)
	m.Keywords = model.NormalizeTokens(kw)
}

func metaLanguages(meta *Meta) []string {
	if len(meta.Languages) > 0 {
		return meta.Languages
	}
	if meta.Language != "" {
		return []string{meta.Language}
	}
	return nil
}

func parseMonth(key string) (time.Time, bool) {
	if len(key) != len(monthLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(monthLayout, key)
	return t, err == nil
}
