package model

import "strings"

// Query is what the search capability receives for one round.
type Query struct {
	// Terms are matched together (AND), most specific first.
	Terms []string `json:"terms"`
	// Preferences narrow the result set when present.
	Preferences []ContributionType `json:"preferences,omitempty"`
	Page        int                `json:"page"`
	Limit       int                `json:"limit"`
}

// Key identifies a query for logging and caching.
func (q Query) Key() string {
	prefs := make([]string, len(q.Preferences))
	for i, p := range q.Preferences {
		prefs[i] = string(p)
	}
	return strings.Join(q.Terms, "+") + "|" + strings.Join(prefs, ",")
}

// RepoMeta is descriptive data the search capability learns as a side
// effect of searching.
type RepoMeta struct {
	Name        string
	Description string
	Languages   []string
	Topics      []string
}
