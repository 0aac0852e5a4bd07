// Package scoring computes repository health and profile-to-repository match
// scores. Everything here is pure.
package scoring

import (
	"math"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// Health normalization constants.
const (
	activeDivisor    = 100.0
	influenceDivisor = 50.0
	demandDivisor    = 50.0

	compositeActive    = 0.5
	compositeInfluence = 0.3
	compositeDemand    = 0.2
)

// Breakdown computes the health scores of a repository.
func Breakdown(m model.RepoMetrics) model.ScoreBreakdown {
	active := clamp01(float64(m.ActiveDays90) * m.DailyPeakActivity / activeDivisor)
	influence := clamp01(m.LatestOpenRank() / influenceDivisor)
	demand := clamp01(float64(m.IssuesNew90) / demandDivisor)
	return model.ScoreBreakdown{
		Active:    active,
		Influence: influence,
		Demand:    demand,
		Composite: compositeActive*active + compositeInfluence*influence + compositeDemand*demand,
	}
}

// clamp01 bounds v to [0,1]; NaN maps to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
