package api

import (
	"context"
	"net/http"

	"github.com/AVALorrie37/OpenRamp/internal/domain/types"
)

// ChatDependencies defines the interface for chat turns.
type ChatDependencies interface {
	Chat(ctx context.Context, userID, message string) (types.ChatReply, error)
}

// ChatHandler handles chat requests.
type ChatHandler struct {
	deps ChatDependencies
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(deps ChatDependencies) *ChatHandler {
	return &ChatHandler{deps: deps}
}

// HandleChat handles POST /chat requests.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	const op = "api.chat"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.ChatRequest
	if err := decode(op, r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	reply, err := h.deps.Chat(r.Context(), req.UserID, req.Message)
	if err != nil {
		writeFailure(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
