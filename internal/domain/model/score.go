package model

// ScoreBreakdown is the intrinsic health of a repository. All fields are in
// [0,1].
type ScoreBreakdown struct {
	Active    float64 `json:"active_score"`
	Influence float64 `json:"influence_score"`
	Demand    float64 `json:"demand_score"`
	Composite float64 `json:"composite_score"`
}

// MatchResult is the fit between one profile and one repository. All fields
// are in [0,1].
type MatchResult struct {
	Skill      float64 `json:"skill"`
	Activity   float64 `json:"activity"`
	Demand     float64 `json:"demand"`
	MatchScore float64 `json:"match_score"`
}

// Scored pairs a repository with its health and match scores.
type Scored struct {
	Repo      RepoMetrics    `json:"repo"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Match     MatchResult    `json:"match"`
}

// Less orders by match score desc, then composite desc, then repo id asc.
func Less(a, b Scored) bool {
	if a.Match.MatchScore != b.Match.MatchScore {
		return a.Match.MatchScore > b.Match.MatchScore
	}
	if a.Breakdown.Composite != b.Breakdown.Composite {
		return a.Breakdown.Composite > b.Breakdown.Composite
	}
	return a.Repo.RepoID < b.Repo.RepoID
}
