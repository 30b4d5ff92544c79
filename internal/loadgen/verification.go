package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vouchd/vouchd/pkg/logger"
)

// verifyLeaderboards fetches every tag's leaderboard and checks the
// invariants: bounded size, counts non-increasing, ties ordered by
// user ID, and entries matching the expected counts.
func verifyLeaderboards(ctx context.Context, config *Config, plan *Plan, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	// Invert the plan: tag -> expected per-owner counts.
	expected := make(map[string]map[string]int)
	for owner, tags := range plan.ExpectedCounts {
		for tag, count := range tags {
			if expected[tag] == nil {
				expected[tag] = make(map[string]int)
			}
			expected[tag][owner] = count
		}
	}

	for tag, owners := range expected {
		stats.BoardsChecked++

		url := fmt.Sprintf("%s/tags/%s/leaderboard", config.BaseURL, tag)
		resp, err := client.Get(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to fetch leaderboard for %q: %w", tag, err)
		}
		data, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read leaderboard response for %q: %w", tag, err)
		}
		if resp.StatusCode != StatusOK {
			return fmt.Errorf("leaderboard fetch for %q returned status %d", tag, resp.StatusCode)
		}
		var leaders []Leader
		if err := json.Unmarshal(data, &leaders); err != nil {
			return fmt.Errorf("failed to decode leaderboard for %q: %w", tag, err)
		}

		if err := checkBoard(tag, leaders, owners); err != nil {
			logger.Get().Error(ctx, "leaderboard verification failed",
				logger.String("tag", tag), logger.Error(err))
			continue
		}
		stats.BoardsOK++
	}

	if stats.BoardsOK != stats.BoardsChecked {
		return fmt.Errorf("%d of %d leaderboards failed verification",
			stats.BoardsChecked-stats.BoardsOK, stats.BoardsChecked)
	}
	logger.Get().Info(ctx, "all leaderboards verified",
		logger.Int("boards", stats.BoardsChecked))
	return nil
}

func checkBoard(tag string, leaders []Leader, expected map[string]int) error {
	if len(leaders) > LeaderboardCapacity {
		return fmt.Errorf("board has %d entries, capacity is %d", len(leaders), LeaderboardCapacity)
	}
	for i := 1; i < len(leaders); i++ {
		prev, cur := leaders[i-1], leaders[i]
		if cur.Count > prev.Count {
			return fmt.Errorf("counts not non-increasing at position %d", i)
		}
		if cur.Count == prev.Count && cur.UserID < prev.UserID {
			return fmt.Errorf("tie at count %d not ordered by user ID", cur.Count)
		}
	}

	// Compute the expected top slice and compare.
	want := topOf(expected)
	if len(leaders) != len(want) {
		return fmt.Errorf("board has %d entries, want %d", len(leaders), len(want))
	}
	for i := range want {
		if leaders[i] != want[i] {
			return fmt.Errorf("entry %d is %+v, want %+v", i, leaders[i], want[i])
		}
	}
	return nil
}

// topOf ranks the expected counts the way the service should.
func topOf(counts map[string]int) []Leader {
	out := make([]Leader, 0, len(counts))
	for owner, count := range counts {
		out = append(out, Leader{UserID: owner, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > LeaderboardCapacity {
		out = out[:LeaderboardCapacity]
	}
	return out
}

// verifyProfiles spot-checks per-user tag counts against the plan.
func verifyProfiles(ctx context.Context, config *Config, plan *Plan, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	for owner, tags := range plan.ExpectedCounts {
		stats.ProfileChecks++

		url := fmt.Sprintf("%s/tags/%s?viewer=%s&limit=%d", config.BaseURL, owner, owner, len(skillTags))
		resp, err := client.Get(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to fetch profile for %q: %w", owner, err)
		}
		data, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read profile response for %q: %w", owner, err)
		}
		if resp.StatusCode != StatusOK {
			return fmt.Errorf("profile fetch for %q returned status %d", owner, resp.StatusCode)
		}

		var page struct {
			Items []struct {
				Tag   string `json:"tag"`
				Count int    `json:"count"`
			} `json:"tags"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return fmt.Errorf("failed to decode profile for %q: %w", owner, err)
		}

		ok := len(page.Items) == len(tags)
		for _, item := range page.Items {
			if tags[item.Tag] != item.Count {
				ok = false
				break
			}
		}
		if ok {
			stats.ProfilesOK++
		} else {
			logger.Get().Error(ctx, "profile verification failed",
				logger.String("owner", owner))
		}
	}

	if stats.ProfilesOK != stats.ProfileChecks {
		return fmt.Errorf("%d of %d profiles failed verification",
			stats.ProfileChecks-stats.ProfilesOK, stats.ProfileChecks)
	}
	logger.Get().Info(ctx, "all profiles verified",
		logger.Int("profiles", stats.ProfileChecks))
	return nil
}
