package loadgen

import "time"

// Config holds configuration for the endorsement load test.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumUsers    int           // Number of users to simulate
	TagsPerUser int           // Tags self-added per user
	Endorsers   int           // Endorsement attempts per (user, tag)
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Op is a single operation to replay against the service.
type Op struct {
	Kind    string `json:"kind"` // "add" or "endorse"
	UserID  string `json:"user_id"`
	Tag     string `json:"tag"`
	ActorID string `json:"actor_id"`
}

// OutcomeResponse mirrors the response of the mutation routes.
type OutcomeResponse struct {
	Message  string `json:"message"`
	NewCount int    `json:"new_count"`
}

// Leader mirrors one leaderboard entry.
type Leader struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// Stats holds test statistics.
type Stats struct {
	OpsGenerated  int
	OpsSubmitted  int
	OpsSuccessful int
	OpsDuplicate  int
	OpsFailed     int
	BoardsChecked int
	BoardsOK      int
	ProfileChecks int
	ProfilesOK    int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
