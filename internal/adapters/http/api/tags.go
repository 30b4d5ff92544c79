// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vouchd/vouchd/internal/domain/types"
)

// TagDependencies defines the interface for tag lifecycle operations.
type TagDependencies interface {
	AddTag(ctx context.Context, owner, tag, actor string) (types.Outcome, error)
	AcceptTag(ctx context.Context, owner, tag string) (types.Outcome, error)
	RejectTag(ctx context.Context, owner, tag string) (types.Outcome, error)
	TagsByUser(ctx context.Context, owner, viewer string, limit int, cursor string) (types.TagPage, error)
}

// TagsHandler handles tag lifecycle requests.
type TagsHandler struct {
	deps TagDependencies
}

// NewTagsHandler creates a new tags handler.
func NewTagsHandler(deps TagDependencies) *TagsHandler {
	return &TagsHandler{deps: deps}
}

// HandleAddTag handles POST /tags/add requests. The added_by field
// decides whether the tag activates immediately (self-add) or becomes
// a pending request.
func (h *TagsHandler) HandleAddTag(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_tag"
	req, ok := decodeTagRequest(w, r, op)
	if !ok {
		return
	}
	actor := req.AddedBy
	if actor == "" {
		actor = req.UserID
	}
	out, err := h.deps.AddTag(r.Context(), req.UserID, req.Tag, actor)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{Message: out.Message, NewCount: out.NewCount})
}

// HandleAcceptTag handles POST /tags/accept requests.
func (h *TagsHandler) HandleAcceptTag(w http.ResponseWriter, r *http.Request) {
	const op = "api.accept_tag"
	req, ok := decodeTagRequest(w, r, op)
	if !ok {
		return
	}
	out, err := h.deps.AcceptTag(r.Context(), req.UserID, req.Tag)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{Message: out.Message, NewCount: out.NewCount})
}

// HandleRejectTag handles POST /tags/reject requests.
func (h *TagsHandler) HandleRejectTag(w http.ResponseWriter, r *http.Request) {
	const op = "api.reject_tag"
	req, ok := decodeTagRequest(w, r, op)
	if !ok {
		return
	}
	out, err := h.deps.RejectTag(r.Context(), req.UserID, req.Tag)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResponse{Message: out.Message})
}

// handleListTags handles GET /tags/{user}?viewer=&limit=&page_token= requests.
func (h *TagsHandler) handleListTags(w http.ResponseWriter, r *http.Request, owner string) {
	const op = "api.list_tags"
	q := r.URL.Query()
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	page, err := h.deps.TagsByUser(r.Context(), owner, q.Get("viewer"), limit, q.Get("page_token"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func decodeTagRequest(w http.ResponseWriter, r *http.Request, op string) (tagRequest, bool) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return tagRequest{}, false
	}
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return tagRequest{}, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return tagRequest{}, false
	}
	return req, true
}
