// Package model contains domain models passed between layers.
package model

import "sort"

// ContributionType enumerates the kinds of contribution a developer prefers.
type ContributionType string

const (
	ContributionBugFix    ContributionType = "bug_fix"
	ContributionFeature   ContributionType = "feature"
	ContributionDocs      ContributionType = "docs"
	ContributionCommunity ContributionType = "community"
	ContributionReview    ContributionType = "review"
	ContributionTest      ContributionType = "test"
)

// ContributionTypes lists every valid contribution type in a stable order.
var ContributionTypes = []ContributionType{
	ContributionBugFix,
	ContributionFeature,
	ContributionDocs,
	ContributionCommunity,
	ContributionReview,
	ContributionTest,
}

// Valid reports whether c is one of the enumerated contribution types.
func (c ContributionType) Valid() bool {
	for _, t := range ContributionTypes {
		if t == c {
			return true
		}
	}
	return false
}

// Experience is the self-reported seniority of a developer.
type Experience string

const (
	ExperienceUnknown      Experience = ""
	ExperienceBeginner     Experience = "beginner"
	ExperienceIntermediate Experience = "intermediate"
	ExperienceAdvanced     Experience = "advanced"
)

// Valid reports whether e is unset or one of the known levels.
func (e Experience) Valid() bool {
	switch e {
	case ExperienceUnknown, ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
		return true
	}
	return false
}

// UserProfile is the structured result of the conversation. Skills and
// Preferences are kept sorted and unique so merging is a set union.
type UserProfile struct {
	Skills      []string           `json:"skills"`
	Preferences []ContributionType `json:"preferences"`
	Experience  Experience         `json:"experience,omitempty"`
}

// AddSkill normalizes raw and inserts it. It reports whether the skill set
// grew.
func (p *UserProfile) AddSkill(raw string) bool {
	t, ok := NormalizeToken(raw)
	if !ok {
		return false
	}
	before := len(p.Skills)
	p.Skills = insertSorted(p.Skills, t)
	return len(p.Skills) > before
}

// AddPreference inserts c if it is a valid contribution type. It reports
// whether the preference set grew.
func (p *UserProfile) AddPreference(c ContributionType) bool {
	if !c.Valid() || p.HasPreference(c) {
		return false
	}
	p.Preferences = append(p.Preferences, c)
	sort.Slice(p.Preferences, func(i, j int) bool { return p.Preferences[i] < p.Preferences[j] })
	return true
}

// HasSkill reports whether the normalized token t is in the skill set.
func (p UserProfile) HasSkill(t string) bool {
	i := sort.SearchStrings(p.Skills, t)
	return i < len(p.Skills) && p.Skills[i] == t
}

// HasPreference reports whether c is among the preferences.
func (p UserProfile) HasPreference(c ContributionType) bool {
	for _, have := range p.Preferences {
		if have == c {
			return true
		}
	}
	return false
}

// Merge unions other into p. Experience is only overwritten by a set value.
func (p *UserProfile) Merge(other UserProfile) {
	for _, s := range other.Skills {
		p.AddSkill(s)
	}
	for _, c := range other.Preferences {
		p.AddPreference(c)
	}
	if other.Experience != ExperienceUnknown {
		p.Experience = other.Experience
	}
}

// Empty reports whether nothing has been collected.
func (p UserProfile) Empty() bool {
	return len(p.Skills) == 0 && len(p.Preferences) == 0 && p.Experience == ExperienceUnknown
}

// Clone returns a deep copy of p.
func (p UserProfile) Clone() UserProfile {
	out := UserProfile{Experience: p.Experience}
	if len(p.Skills) > 0 {
		out.Skills = append([]string(nil), p.Skills...)
	}
	if len(p.Preferences) > 0 {
		out.Preferences = append([]ContributionType(nil), p.Preferences...)
	}
	return out
}
