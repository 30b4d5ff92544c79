// Package model contains domain models passed between layers.
package model

import "time"

// Status is the lifecycle state of a tag.
type Status string

// Tag lifecycle states. A tag proposed by another user starts PENDING and
// becomes ACTIVE when the owner accepts it; a self-added tag starts ACTIVE.
const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusActive
}

// Tag is a named skill claim on a user's profile, identified by (Owner, Name).
type Tag struct {
	Owner     string    `json:"user_id"`
	Name      string    `json:"tag"`
	Status    Status    `json:"status"`
	Count     int       `json:"count"`
	CreatedBy string    `json:"created_by,omitempty"` // proposer; set only while PENDING
	CreatedAt time.Time `json:"created_at"`
}

// Endorsement is a unique (Owner, Tag, Endorser) assertion that Endorser
// vouches for Owner's tag. Immutable once created.
type Endorsement struct {
	Owner     string    `json:"user_id"`
	Tag       string    `json:"tag"`
	Endorser  string    `json:"endorser_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderEntry is one row of the bounded per-tag leaderboard.
type LeaderEntry struct {
	Owner string `json:"user_id"`
	Count int    `json:"count"`
}
