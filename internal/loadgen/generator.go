package loadgen

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"github.com/vouchd/vouchd/pkg/logger"
)

// Plan is the generated workload plus the state it should converge to.
type Plan struct {
	AddOps     []Op
	EndorseOps []Op

	// ExpectedCounts maps owner -> tag -> expected endorsement count
	// (1 for the self-add plus one per unique endorser).
	ExpectedCounts map[string]map[string]int
}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generatePlan creates users, self-add operations, and endorsement
// operations, and records the counts the service should end up with.
// Endorsement attempts may repeat an endorser; the duplicate is part
// of the workload and must not change the expected count.
func generatePlan(ctx context.Context, config *Config, stats *Stats) (*Plan, error) {
	logger.Get().Info(ctx, "generating workload",
		logger.Int("numUsers", config.NumUsers),
		logger.Int("tagsPerUser", config.TagsPerUser),
		logger.Int("endorsersPerTag", config.Endorsers))

	users := make([]string, config.NumUsers)
	for i := range users {
		users[i] = uuid.New().String()
	}

	plan := &Plan{
		ExpectedCounts: make(map[string]map[string]int, config.NumUsers),
	}

	for _, owner := range users {
		tags := pickTags(config.TagsPerUser)
		plan.ExpectedCounts[owner] = make(map[string]int, len(tags))

		for _, tag := range tags {
			plan.AddOps = append(plan.AddOps, Op{
				Kind: "add", UserID: owner, Tag: tag, ActorID: owner,
			})

			unique := make(map[string]struct{}, config.Endorsers)
			for e := 0; e < config.Endorsers; e++ {
				endorser := users[randomInt(len(users))]
				if endorser == owner {
					continue
				}
				plan.EndorseOps = append(plan.EndorseOps, Op{
					Kind: "endorse", UserID: owner, Tag: tag, ActorID: endorser,
				})
				unique[endorser] = struct{}{}
			}
			plan.ExpectedCounts[owner][tag] = 1 + len(unique)
		}
	}

	stats.OpsGenerated = len(plan.AddOps) + len(plan.EndorseOps)
	logger.Get().Info(ctx, "workload generated",
		logger.Int("addOps", len(plan.AddOps)),
		logger.Int("endorseOps", len(plan.EndorseOps)))
	return plan, nil
}

// pickTags selects n distinct tags from the vocabulary.
func pickTags(n int) []string {
	if n >= len(skillTags) {
		out := make([]string, len(skillTags))
		copy(out, skillTags)
		return out
	}
	seen := make(map[int]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		i := randomInt(len(skillTags))
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, skillTags[i])
	}
	return out
}
