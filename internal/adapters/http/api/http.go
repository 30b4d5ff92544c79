// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vouchd/vouchd/internal/adapters/docstore"
	"github.com/vouchd/vouchd/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Write operations mutate tags and endorsements.
	Endorse(ctx context.Context, owner, tag, endorser string) (types.Outcome, error)
	AddTag(ctx context.Context, owner, tag, actor string) (types.Outcome, error)
	AcceptTag(ctx context.Context, owner, tag string) (types.Outcome, error)
	RejectTag(ctx context.Context, owner, tag string) (types.Outcome, error)

	// Read operations expose profiles and leaderboards.
	TagLeaders(ctx context.Context, tag string) ([]types.Leader, error)
	Endorsers(ctx context.Context, owner, tag, cursor string) (types.EndorserPage, error)
	TagsByUser(ctx context.Context, owner, viewer string, limit int, cursor string) (types.TagPage, error)
	EndorsedByActor(ctx context.Context, actor, cursor string) (types.EndorsedPage, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	tagsHandler        *TagsHandler
	endorseHandler     *EndorseHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		tagsHandler:        NewTagsHandler(deps),
		endorseHandler:     NewEndorseHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/tags/add", MetricsMiddleware(s.tagsHandler.HandleAddTag, "tags_add"))
	mux.HandleFunc("/tags/accept", MetricsMiddleware(s.tagsHandler.HandleAcceptTag, "tags_accept"))
	mux.HandleFunc("/tags/reject", MetricsMiddleware(s.tagsHandler.HandleRejectTag, "tags_reject"))
	mux.HandleFunc("/tags/endorse", MetricsMiddleware(s.endorseHandler.HandleEndorse, "tags_endorse"))
	mux.HandleFunc("/tags/endorsed-users", MetricsMiddleware(s.endorseHandler.HandleEndorsedUsers, "tags_endorsed_users"))
	mux.HandleFunc("/tags/", MetricsMiddleware(s.handleTagsSubtree, "tags_read"))
}

// handleTagsSubtree dispatches the parameterized GET routes:
//
//	GET /tags/{user}
//	GET /tags/{user}/{tag}/endorsers
//	GET /tags/{tag}/leaderboard
func (s *Server) handleTagsSubtree(w http.ResponseWriter, r *http.Request) {
	const op = "api.tags_read"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/tags/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		s.tagsHandler.handleListTags(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "leaderboard":
		s.leaderboardHandler.handleGetLeaderboard(w, r, parts[0])
	case len(parts) == 3 && parts[2] == "endorsers":
		s.endorseHandler.handleListEndorsers(w, r, parts[0], parts[1])
	default:
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrRouteNotFound))
	}
}

// tagRequest mirrors the OpenAPI schema for the tag mutation routes.
type tagRequest struct {
	UserID     string `json:"user_id"`
	Tag        string `json:"tag"`
	AddedBy    string `json:"added_by,omitempty"`
	EndorsedBy string `json:"endorsed_by,omitempty"`
}

func (t tagRequest) validate() error {
	switch {
	case strings.TrimSpace(t.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(t.Tag) == "":
		return errors.New("missing tag")
	}
	return nil
}

// outcomeResponse is the shape returned by the mutation routes.
type outcomeResponse struct {
	Message  string `json:"message"`
	NewCount int    `json:"new_count,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates upstream errors to HTTP statuses. Bad
// cursors and bad limits are the caller's fault; everything else is a
// server problem.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, docstore.ErrBadCursor) {
		writeError(w, http.StatusBadRequest, "bad_cursor", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
}
