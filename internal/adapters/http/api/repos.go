package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/AVALorrie37/OpenRamp/internal/domain/types"
)

// RepoDependencies defines the interface for repository lookups.
type RepoDependencies interface {
	Repo(ctx context.Context, repoID string) (types.RepoView, error)
}

// RepoHandler handles repository requests.
type RepoHandler struct {
	deps RepoDependencies
}

// NewRepoHandler creates a new repository handler.
func NewRepoHandler(deps RepoDependencies) *RepoHandler {
	return &RepoHandler{deps: deps}
}

// HandleGetRepo handles GET /repos/{owner}/{repo} requests.
func (h *RepoHandler) HandleGetRepo(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_repo"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/repos/"), "/")
	owner, name, ok := strings.Cut(id, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		writeFailure(w, r, NewKind(op, ErrBadRequest))
		return
	}
	view, err := h.deps.Repo(r.Context(), id)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
