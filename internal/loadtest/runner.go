package loadtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/podium/internal/client"
	"github.com/okian/podium/pkg/jsonfile"
	"github.com/okian/podium/pkg/logger"
)

// File permission constants.
const (
	directoryPermission  = 0750
	percentageMultiplier = 100
)

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	logger.Get().Info(ctx, "starting podium load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("participants", config.Participants),
		logger.Int("problems", config.Problems),
		logger.Float64("duplicateRatio", config.DuplicateRatio),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.String("logFile", config.LogFile),
		logger.Bool("verbose", config.Verbose))

	api := client.NewClient(config.BaseURL, client.WithTimeout(config.Timeout))

	// Step 1: Check service health
	if err := api.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate the workload
	plan, err := generatePlan(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("plan generation failed: %w", err)
	}
	if err := savePlan(ctx, config, plan); err != nil {
		logger.Get().Warn(ctx, "failed to save plan", logger.Error(err))
	}

	// Step 3: Register everyone
	if err := registerParticipants(ctx, config, api, plan, stats); err != nil {
		return stats, fmt.Errorf("registration failed: %w", err)
	}

	// Step 4: Submit concurrently
	l, err := submitAll(ctx, config, api, plan, stats)
	if err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	// Step 5: Per-problem results
	results, err := fetchResults(ctx, config, api)
	if err != nil {
		return stats, fmt.Errorf("results retrieval failed: %w", err)
	}
	if err := verifyResults(ctx, config, plan, l, results, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Standings
	board, err := api.Leaderboard(ctx, config.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	if err := verifyLeaderboard(ctx, config, board, stats); err != nil {
		return stats, fmt.Errorf("leaderboard verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.SubmissionsFailed > 0 {
		return stats, fmt.Errorf("%d submissions failed", stats.SubmissionsFailed)
	}
	logger.Get().Info(ctx, "test completed successfully")
	return stats, nil
}

// savePlan writes the generated workload when an output file is set.
func savePlan(ctx context.Context, config *Config, plan *Plan) error {
	if config.OutputFile == "" {
		return nil
	}
	if dir := filepath.Dir(config.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := jsonfile.WriteAtomic(config.OutputFile, plan); err != nil {
		return err
	}
	logger.Get().Info(ctx, "plan saved to file", logger.String("filename", config.OutputFile))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, submissionsPerSecond float64

	if stats.SubmissionsSent > 0 {
		ok := stats.SubmissionsAccepted + stats.SubmissionsRepeated
		successRate = float64(ok) / float64(stats.SubmissionsSent) * percentageMultiplier
	}

	if stats.Duration > 0 {
		submissionsPerSecond = float64(stats.SubmissionsSent) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("registered", stats.Registered),
		logger.Int("submissionsPlanned", stats.SubmissionsPlanned),
		logger.Int("submissionsSent", stats.SubmissionsSent),
		logger.Int("submissionsAccepted", stats.SubmissionsAccepted),
		logger.Int("submissionsRepeated", stats.SubmissionsRepeated),
		logger.Int("submissionsFailed", stats.SubmissionsFailed),
		logger.Int("problemsChecked", stats.ProblemsChecked),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("submissionsPerSecond", submissionsPerSecond))
}
