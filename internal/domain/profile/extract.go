package profile

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

var (
	// wordPattern finds ASCII-ish words inside mixed-script text.
	wordPattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9_+#.\-]*`)
	// versionedPattern accepts tokens like vue3, python3, es6.
	versionedPattern = regexp.MustCompile(`^[a-z]+[0-9]+[a-z0-9]*$`)
	camelPattern     = regexp.MustCompile(`[a-z][A-Z]`)
)

// Extraction is what a single message yields.
type Extraction struct {
	Skills      []string
	Preferences []model.ContributionType
	Experience  model.Experience

	Confirm  bool
	Discover bool
	Reset    bool
}

// Empty reports whether nothing at all was recognised.
func (e Extraction) Empty() bool {
	return len(e.Skills) == 0 && len(e.Preferences) == 0 && e.Experience == model.ExperienceUnknown &&
		!e.Confirm && !e.Discover && !e.Reset
}

// HasProfileData reports whether e carries skills, preferences or experience.
func (e Extraction) HasProfileData() bool {
	return len(e.Skills) > 0 || len(e.Preferences) > 0 || e.Experience != model.ExperienceUnknown
}

// Union merges other into e, validating foreign tokens on the way.
func (e Extraction) Union(other Extraction) Extraction {
	p := model.UserProfile{Skills: e.Skills, Preferences: e.Preferences}
	for _, s := range other.Skills {
		p.AddSkill(s)
	}
	for _, c := range other.Preferences {
		p.AddPreference(c)
	}
	e.Skills, e.Preferences = p.Skills, p.Preferences
	if e.Experience == model.ExperienceUnknown && other.Experience.Valid() {
		e.Experience = other.Experience
	}
	e.Confirm = e.Confirm || other.Confirm
	e.Discover = e.Discover || other.Discover
	e.Reset = e.Reset || other.Reset
	return e
}

// Tokenizer extracts skills, preferences and intents from chat text.
type Tokenizer struct {
	vocabulary map[string]struct{}
}

// NewTokenizer builds a tokenizer over the default vocabulary plus extra.
func NewTokenizer(extra ...string) *Tokenizer {
	t := &Tokenizer{vocabulary: make(map[string]struct{}, len(defaultVocabulary)+len(extra))}
	for _, v := range defaultVocabulary {
		t.vocabulary[v] = struct{}{}
	}
	for _, v := range extra {
		if n, ok := model.NormalizeToken(v); ok {
			t.vocabulary[n] = struct{}{}
		}
	}
	return t
}

// Extract never fails; unrecognised text yields an empty Extraction.
func (t *Tokenizer) Extract(message string) Extraction {
	folded := width.Fold.String(message)
	lower := strings.ToLower(folded)

	raw := wordPattern.FindAllString(folded, -1)
	words := make([]string, 0, len(raw))
	var out Extraction
	var pending []string
	p := model.UserProfile{}
	for _, w := range raw {
		w = strings.TrimRight(w, ".-")
		if w == "" {
			continue
		}
		words = append(words, strings.ToLower(w))
		switch {
		case !t.isSkill(w):
		case ambiguous(w):
			pending = append(pending, w)
		default:
			p.AddSkill(w)
		}
	}
	padded := " " + strings.Join(words, " ") + " "
	if len(pending) > 0 && (len(p.Skills) > 0 || !isASCII(lower) || matchAny(lower, padded, skillCues)) {
		for _, w := range pending {
			p.AddSkill(w)
		}
	}

	for phrase, c := range preferenceLexicon {
		if matchPhrase(lower, padded, phrase) {
			p.AddPreference(c)
		}
	}
	for phrase, lvl := range experienceLexicon {
		if matchPhrase(lower, padded, phrase) && rank(lvl) > rank(out.Experience) {
			out.Experience = lvl
		}
	}
	out.Skills, out.Preferences = p.Skills, p.Preferences
	out.Confirm = matchAny(lower, padded, confirmPhrases)
	out.Discover = matchAny(lower, padded, discoverPhrases)
	out.Reset = matchAny(lower, padded, resetPhrases)
	return out
}

// isSkill applies the allow-list first, then the shape heuristic.
func (t *Tokenizer) isSkill(word string) bool {
	n, ok := model.NormalizeToken(word)
	if !ok {
		return false
	}
	if _, ok := t.vocabulary[n]; ok {
		return true
	}
	if len(n) < 2 || n[0] < 'a' || n[0] > 'z' {
		return false
	}
	return camelPattern.MatchString(word) ||
		versionedPattern.MatchString(n) ||
		strings.ContainsAny(word, "+#") ||
		dottedName(word)
}

func ambiguous(word string) bool {
	n, ok := model.NormalizeToken(word)
	if !ok {
		return false
	}
	_, hit := ambiguousSkills[n]
	return hit
}

// dottedName accepts names like asp.net but not abbreviations like e.g.
func dottedName(word string) bool {
	parts := strings.Split(word, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if len(p) < 2 {
			return false
		}
	}
	return true
}

// rank orders experience levels so the most senior mention wins.
func rank(e model.Experience) int {
	switch e {
	case model.ExperienceBeginner:
		return 1
	case model.ExperienceIntermediate:
		return 2
	case model.ExperienceAdvanced:
		return 3
	}
	return 0
}

func matchAny(lower, padded string, phrases []string) bool {
	for _, ph := range phrases {
		if matchPhrase(lower, padded, ph) {
			return true
		}
	}
	return false
}

// matchPhrase matches ASCII phrases on word boundaries and anything with
// non-ASCII characters as a plain substring.
func matchPhrase(lower, padded, phrase string) bool {
	if isASCII(phrase) {
		return strings.Contains(padded, " "+phrase+" ")
	}
	return strings.Contains(lower, phrase)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
