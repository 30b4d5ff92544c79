package loadgen

import "time"

// Timing and limit constants.
const (
	StatusOK             = 200
	SettleDelay          = 2 * time.Second
	PercentageMultiplier = 100.0
	LeaderboardCapacity  = 100
)

// skillTags is the vocabulary ops draw tags from. Keeping it small
// relative to the user count forces contention on popular tags.
var skillTags = []string{
	"go", "rust", "python", "sql", "kubernetes",
	"terraform", "react", "grpc", "kafka", "postgres",
	"redis", "linux", "networking", "security", "observability",
}
