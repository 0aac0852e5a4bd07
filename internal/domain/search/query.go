package search

import (
	"sort"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// plan is the query state carried between rounds. It only ever broadens.
type plan struct {
	terms []string
	prefs []model.ContributionType
	page  int
}

// newPlan orders skills most specific first: longer tokens before shorter,
// then alphabetically.
func newPlan(p model.UserProfile) *plan {
	terms := append([]string(nil), p.Skills...)
	sort.SliceStable(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	return &plan{
		terms: terms,
		prefs: append([]model.ContributionType(nil), p.Preferences...),
		page:  1,
	}
}

func (p *plan) query(limit int) model.Query {
	return model.Query{
		Terms:       append([]string(nil), p.terms...),
		Preferences: append([]model.ContributionType(nil), p.prefs...),
		Page:        p.page,
		Limit:       limit,
	}
}

// broaden widens the query one step: preference filters go first, then the
// least informative skill term. With a single bare term left it pages
// forward instead.
func (p *plan) broaden() string {
	switch {
	case len(p.prefs) > 0:
		p.prefs = nil
		p.page = 1
		return "drop_preferences"
	case len(p.terms) > 1:
		p.terms = p.terms[:len(p.terms)-1]
		p.page = 1
		return "drop_term"
	default:
		p.page++
		return "next_page"
	}
}
