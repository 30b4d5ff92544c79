// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/vouchd/vouchd/internal/domain/types"
)

// EndorseDependencies defines the interface for endorsement operations.
type EndorseDependencies interface {
	Endorse(ctx context.Context, owner, tag, endorser string) (types.Outcome, error)
	Endorsers(ctx context.Context, owner, tag, cursor string) (types.EndorserPage, error)
	EndorsedByActor(ctx context.Context, actor, cursor string) (types.EndorsedPage, error)
}

// EndorseHandler handles endorsement requests.
type EndorseHandler struct {
	deps EndorseDependencies
}

// NewEndorseHandler creates a new endorse handler.
func NewEndorseHandler(deps EndorseDependencies) *EndorseHandler {
	return &EndorseHandler{deps: deps}
}

// HandleEndorse handles POST /tags/endorse requests.
func (h *EndorseHandler) HandleEndorse(w http.ResponseWriter, r *http.Request) {
	const op = "api.endorse"
	req, ok := decodeTagRequest(w, r, op)
	if !ok {
		return
	}
	if req.EndorsedBy == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing endorsed_by")))
		return
	}
	out, err := h.deps.Endorse(r.Context(), req.UserID, req.Tag, req.EndorsedBy)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{Message: out.Message, NewCount: out.NewCount})
}

// handleListEndorsers handles GET /tags/{user}/{tag}/endorsers requests.
func (h *EndorseHandler) handleListEndorsers(w http.ResponseWriter, r *http.Request, owner, tag string) {
	const op = "api.list_endorsers"
	page, err := h.deps.Endorsers(r.Context(), owner, tag, r.URL.Query().Get("page_token"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleEndorsedUsers handles GET /tags/endorsed-users?user_id= requests,
// listing the (user, tag) pairs the given user has endorsed.
func (h *EndorseHandler) HandleEndorsedUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.endorsed_users"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	actor := r.URL.Query().Get("user_id")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("missing user_id")))
		return
	}
	page, err := h.deps.EndorsedByActor(r.Context(), actor, r.URL.Query().Get("page_token"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
