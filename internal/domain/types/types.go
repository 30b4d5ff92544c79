// Package types contains common types shared across the application.
package types

import "github.com/vouchd/vouchd/internal/domain/model"

// Outcome is the result of a write operation. Business no-ops carry a
// descriptive message rather than an error.
type Outcome struct {
	Message  string `json:"message"`
	NewCount int    `json:"new_count,omitempty"`
}

// Leader is one leaderboard row as returned to clients.
type Leader struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// TagPage is one page of a tag listing.
type TagPage struct {
	Items      []model.Tag `json:"tags"`
	NextCursor string      `json:"next_page_token,omitempty"`
}

// EndorserPage is one page of an endorser listing.
type EndorserPage struct {
	Items      []model.Endorsement `json:"endorsers"`
	NextCursor string              `json:"next_page_token,omitempty"`
}

// EndorsedRef identifies one (owner, tag) pair endorsed by an actor.
type EndorsedRef struct {
	UserID string `json:"user_id"`
	Tag    string `json:"tag"`
}

// EndorsedPage is one page of an endorsed-by-actor listing.
type EndorsedPage struct {
	Items      []EndorsedRef `json:"items"`
	NextCursor string        `json:"next_page_token,omitempty"`
}
