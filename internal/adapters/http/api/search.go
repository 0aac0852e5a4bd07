package api

import (
	"context"
	"net/http"

	"github.com/AVALorrie37/OpenRamp/internal/domain/types"
)

// SearchDependencies defines the interface for explicit searches.
type SearchDependencies interface {
	Search(ctx context.Context, req types.SearchRequest) (types.SearchResult, error)
}

// SearchHandler handles search requests.
type SearchHandler struct {
	deps SearchDependencies
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps SearchDependencies) *SearchHandler {
	return &SearchHandler{deps: deps}
}

// HandleSearch handles POST /search requests.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.SearchRequest
	if err := decode(op, r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	res, err := h.deps.Search(r.Context(), req)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
