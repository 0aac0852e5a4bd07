package store

import (
	"context"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
)

// DefaultSearchLimit is the page size used when a query does not set one.
const DefaultSearchLimit = 30

// OfflineSearcher serves the search capability from the loaded snapshot so
// offline mode needs no network at all.
type OfflineSearcher struct {
	store *MetricsStore
}

// NewSearcher returns a searcher over s's snapshot.
func NewSearcher(s *MetricsStore) *OfflineSearcher {
	return &OfflineSearcher{store: s}
}

// Search returns ids whose tokens contain every query term, in composite
// order. When preferences are set only repositories with new issues in the
// window qualify. Pages start at 1.
func (o *OfflineSearcher) Search(ctx context.Context, q model.Query) ([]string, error) {
	snap, err := o.store.Snapshot()
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * limit

	out := make([]string, 0, limit)
	for _, id := range snap.ids {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if !snap.matches(id, q) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Snapshot) matches(id string, q model.Query) bool {
	toks := s.tokens[id]
	for _, term := range q.Terms {
		if _, ok := toks[term]; !ok {
			return false
		}
	}
	if len(q.Preferences) > 0 && s.repos[id].IssuesNew90 == 0 {
		return false
	}
	return true
}
