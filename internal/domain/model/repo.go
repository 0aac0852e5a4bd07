package model

// Source tells where a RepoMetrics record came from.
type Source string

const (
	SourceOffline Source = "offline"
	SourceOnline  Source = "online"
	// SourceDegraded marks an offline record served in place of a failed live fetch.
	SourceDegraded Source = "degraded"
)

// Mode selects which data source answers metric lookups.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOffline, ModeOnline:
		return Mode(s), nil
	}
	return "", ErrUnknownMode
}

// OpenRankPoint is one period of the OpenRank influence series.
type OpenRankPoint struct {
	Period string  `json:"period"` // YYYY-MM
	Value  float64 `json:"value"`
}

// RepoMetrics is the normalized view of a repository, whichever source
// produced it. Numeric fields are never negative.
type RepoMetrics struct {
	RepoID            string          `json:"repo_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Languages         []string        `json:"languages"`
	Keywords          []string        `json:"keywords"`
	ActiveDays90      int             `json:"active_days_90"`
	DailyPeakActivity float64         `json:"daily_peak_activity"`
	IssuesNew90       int             `json:"issues_new_90"`
	OpenRankSeries    []OpenRankPoint `json:"openrank_series"`
	Source            Source          `json:"source"`
}

// LatestOpenRank returns the value of the chronologically last entry, or 0
// for an empty series.
func (m RepoMetrics) LatestOpenRank() float64 {
	if len(m.OpenRankSeries) == 0 {
		return 0
	}
	return m.OpenRankSeries[len(m.OpenRankSeries)-1].Value
}

// Sanitize clamps negative numbers to zero and normalizes keywords.
func (m RepoMetrics) Sanitize() RepoMetrics {
	if m.ActiveDays90 < 0 {
		m.ActiveDays90 = 0
	}
	if m.DailyPeakActivity < 0 {
		m.DailyPeakActivity = 0
	}
	if m.IssuesNew90 < 0 {
		m.IssuesNew90 = 0
	}
	series := make([]OpenRankPoint, 0, len(m.OpenRankSeries))
	for _, p := range m.OpenRankSeries {
		if p.Value < 0 {
			p.Value = 0
		}
		series = append(series, p)
	}
	m.OpenRankSeries = series
	m.Keywords = NormalizeTokens(m.Keywords)
	return m
}

// Clone returns a deep copy of m.
func (m RepoMetrics) Clone() RepoMetrics {
	out := m
	out.Languages = append([]string(nil), m.Languages...)
	out.Keywords = append([]string(nil), m.Keywords...)
	out.OpenRankSeries = append([]OpenRankPoint(nil), m.OpenRankSeries...)
	return out
}
