package scoring

import (
	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// Matcher scores how well a repository fits a profile.
type Matcher interface {
	Calculate(profile model.UserProfile, repo model.RepoMetrics) model.MatchResult
}

// Option applies a configuration option to the MatchScorer.
type Option func(*MatchScorer)

// WithWeights sets the base weights.
func WithWeights(w Weights) Option {
	return func(s *MatchScorer) {
		s.weights = w
	}
}

// WithAdaptiveWeights switches weights per profile: beginners get the
// beginner preset, advanced developers the expert preset and a profile that
// only wants bug fixes the issue-solver preset.
func WithAdaptiveWeights(enabled bool) Option {
	return func(s *MatchScorer) {
		s.adaptive = enabled
	}
}

// MatchScorer implements Matcher with configurable weights.
type MatchScorer struct {
	weights  Weights
	adaptive bool
}

// NewMatchScorer builds a scorer and validates its weights.
func NewMatchScorer(opts ...Option) (*MatchScorer, error) {
	s := &MatchScorer{weights: DefaultWeights}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Weights returns the configured base weights.
func (s *MatchScorer) Weights() Weights { return s.weights }

// Calculate computes the match between profile and repo.
func (s *MatchScorer) Calculate(profile model.UserProfile, repo model.RepoMetrics) model.MatchResult {
	health := Breakdown(repo)
	w := s.weightsFor(profile)

	skill := SkillOverlap(profile, repo)
	return model.MatchResult{
		Skill:      skill,
		Activity:   health.Active,
		Demand:     health.Demand,
		MatchScore: clamp01(w.Skill*skill + w.Activity*health.Active + w.Demand*health.Demand),
	}
}

func (s *MatchScorer) weightsFor(p model.UserProfile) Weights {
	if !s.adaptive {
		return s.weights
	}
	if len(p.Preferences) == 1 && p.Preferences[0] == model.ContributionBugFix {
		return IssueSolverWeights
	}
	switch p.Experience {
	case model.ExperienceBeginner:
		return BeginnerWeights
	case model.ExperienceAdvanced:
		return ExpertWeights
	}
	return s.weights
}

// SkillOverlap is the share of profile skills found among the repository's
// keywords and normalized languages.
func SkillOverlap(p model.UserProfile, repo model.RepoMetrics) float64 {
	if len(p.Skills) == 0 {
		return 0
	}
	vocab := make(map[string]struct{}, len(repo.Keywords)+len(repo.Languages))
	for _, k := range repo.Keywords {
		if t, ok := model.NormalizeToken(k); ok {
			vocab[t] = struct{}{}
		}
	}
	for _, l := range repo.Languages {
		if t, ok := model.NormalizeToken(l); ok {
			vocab[t] = struct{}{}
		}
	}
	if len(vocab) == 0 {
		return 0
	}
	hits := 0
	for _, s := range p.Skills {
		if _, ok := vocab[s]; ok {
			hits++
		}
	}
	return clamp01(float64(hits) / float64(len(p.Skills)))
}
