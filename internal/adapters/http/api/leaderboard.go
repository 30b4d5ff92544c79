// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/vouchd/vouchd/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	TagLeaders(ctx context.Context, tag string) ([]types.Leader, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// handleGetLeaderboard handles GET /tags/{tag}/leaderboard requests.
func (h *LeaderboardHandler) handleGetLeaderboard(w http.ResponseWriter, r *http.Request, tag string) {
	const op = "api.get_leaderboard"
	leaders, err := h.deps.TagLeaders(r.Context(), tag)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if leaders == nil {
		leaders = []types.Leader{}
	}
	writeJSON(w, http.StatusOK, leaders)
}
