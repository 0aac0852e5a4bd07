// Package types contains the request and response shapes shared by the
// service layer and the HTTP API.
package types

import "github.com/AVALorrie37/OpenRamp/internal/domain/model"

// Entry is one ranked recommendation.
type Entry struct {
	Rank        int      `json:"rank"`
	RepoID      string   `json:"repo_id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	Source      string   `json:"source"`
	MatchScore  float64  `json:"match_score"`
	Skill       float64  `json:"skill"`
	Activity    float64  `json:"activity"`
	Demand      float64  `json:"demand"`
	Composite   float64  `json:"composite_score"`
}

// Entries ranks scored repositories in the order given, starting at 1.
func Entries(scored []model.Scored) []Entry {
	out := make([]Entry, len(scored))
	for i, s := range scored {
		out[i] = Entry{
			Rank:        i + 1,
			RepoID:      s.Repo.RepoID,
			Name:        s.Repo.Name,
			Description: s.Repo.Description,
			Languages:   s.Repo.Languages,
			Source:      string(s.Repo.Source),
			MatchScore:  s.Match.MatchScore,
			Skill:       s.Match.Skill,
			Activity:    s.Match.Activity,
			Demand:      s.Match.Demand,
			Composite:   s.Breakdown.Composite,
		}
	}
	return out
}

// SearchRequest is the body of POST /search. Zero numbers take the
// configured defaults.
type SearchRequest struct {
	Skills      []string `json:"skills" validate:"max=50,dive,required,max=64"`
	Preferences []string `json:"preferences" validate:"max=6,dive,oneof=bug_fix feature docs community review test"`
	Experience  string   `json:"experience" validate:"omitempty,oneof=beginner intermediate advanced"`
	Target      int      `json:"target" validate:"gte=0,lte=100"`
	MaxRounds   int      `json:"max_rounds" validate:"gte=0,lte=20"`
	DeadlineMS  int      `json:"deadline_ms" validate:"gte=0,lte=120000"`
}

// Profile converts the request into an unnormalized profile.
func (r SearchRequest) Profile() model.UserProfile {
	p := model.UserProfile{
		Skills:     append([]string(nil), r.Skills...),
		Experience: model.Experience(r.Experience),
	}
	for _, c := range r.Preferences {
		p.Preferences = append(p.Preferences, model.ContributionType(c))
	}
	return p
}

// SearchResult is the outcome of a search as reported to callers.
type SearchResult struct {
	Entries    []Entry  `json:"entries"`
	Exhausted  bool     `json:"exhausted"`
	Rounds     int      `json:"rounds"`
	StopReason string   `json:"stop_reason"`
	Missing    []string `json:"missing,omitempty"`
	Degraded   []string `json:"degraded,omitempty"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	UserID  string `json:"user_id" validate:"required,max=128"`
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatReply is the outcome of one chat turn. Search is set when the turn
// asked for discovery.
type ChatReply struct {
	UserID    string            `json:"user_id"`
	Directive string            `json:"directive"`
	Action    string            `json:"action"`
	State     string            `json:"state"`
	Profile   model.UserProfile `json:"profile"`
	Clarify   string            `json:"clarify,omitempty"`
	Search    *SearchResult     `json:"search,omitempty"`
}

// RepoView is a repository with its health breakdown.
type RepoView struct {
	Repo      model.RepoMetrics    `json:"repo"`
	Breakdown model.ScoreBreakdown `json:"breakdown"`
	Degraded  bool                 `json:"degraded"`
}
