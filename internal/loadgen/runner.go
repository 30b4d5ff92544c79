package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/vouchd/vouchd/pkg/logger"
)

// Run executes the complete endorsement load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting endorsement load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.NumUsers),
		logger.Int("tagsPerUser", config.TagsPerUser),
		logger.Int("endorsersPerTag", config.Endorsers),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate the workload
	plan, err := generatePlan(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("workload generation failed: %w", err)
	}

	// Step 3: Submit self-adds, then endorsements. The add phase must
	// finish first so every endorsement targets an active tag.
	if err := submitOps(ctx, config, plan.AddOps, stats); err != nil {
		return fmt.Errorf("add phase failed: %w", err)
	}
	if err := submitOps(ctx, config, plan.EndorseOps, stats); err != nil {
		return fmt.Errorf("endorse phase failed: %w", err)
	}

	// Step 4: Let reconciliation settle
	logger.Get().Info(ctx, "waiting for leaderboards to settle")
	time.Sleep(SettleDelay)

	// Step 5: Verify leaderboards and profiles
	if err := verifyLeaderboards(ctx, config, plan, stats); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}
	if err := verifyProfiles(ctx, config, plan, stats); err != nil {
		return fmt.Errorf("profile verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy (the route serves Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, opsPerSecond float64

	if stats.OpsSubmitted > 0 {
		successRate = float64(stats.OpsSuccessful) / float64(stats.OpsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		opsPerSecond = float64(stats.OpsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("opsGenerated", stats.OpsGenerated),
		logger.Int("opsSubmitted", stats.OpsSubmitted),
		logger.Int("opsSuccessful", stats.OpsSuccessful),
		logger.Int("opsDuplicate", stats.OpsDuplicate),
		logger.Int("opsFailed", stats.OpsFailed),
		logger.Int("boardsChecked", stats.BoardsChecked),
		logger.Int("profileChecks", stats.ProfileChecks),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("opsPerSecond", opsPerSecond))
}
