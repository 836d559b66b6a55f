package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/podium/pkg/logger"
)

// Constants for plan generation.
const (
	randomDivisor     = 1_000_000
	solveProbability  = 0.5
	nameSuffixLength  = 8
	defaultNamePrefix = "load"
)

// randomFloat returns a random float64 in [0, 1) using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomDivisor))
	return float64(n.Int64()) / float64(randomDivisor)
}

// randomIntn returns a random int in [0, n).
func randomIntn(n int) int {
	if n <= 1 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generatePlan builds participant names and a shuffled submission list.
// Each participant solves a random non-empty subset of problems; a share of
// submissions is replayed to exercise duplicate handling.
func generatePlan(ctx context.Context, config *Config, stats *Stats) (*Plan, error) {
	if config.Participants < 1 {
		return nil, fmt.Errorf("participants must be at least 1")
	}
	if config.Problems < 1 {
		return nil, fmt.Errorf("problems must be at least 1")
	}

	prefix := config.NamePrefix
	if prefix == "" {
		prefix = defaultNamePrefix
	}
	run := uuid.NewString()[:nameSuffixLength]

	plan := &Plan{Names: make([]string, 0, config.Participants)}
	for i := range config.Participants {
		name := fmt.Sprintf("%s-%s-%04d", prefix, run, i)
		plan.Names = append(plan.Names, name)

		solved := 0
		for p := 1; p <= config.Problems; p++ {
			if randomFloat() < solveProbability {
				plan.Submissions = append(plan.Submissions, Submission{Name: name, Problem: p})
				solved++
			}
		}
		if solved == 0 {
			plan.Submissions = append(plan.Submissions, Submission{Name: name, Problem: 1 + randomIntn(config.Problems)})
		}
	}

	unique := len(plan.Submissions)
	replays := int(float64(unique) * config.DuplicateRatio)
	for range replays {
		s := plan.Submissions[randomIntn(unique)]
		s.Replay = true
		plan.Submissions = append(plan.Submissions, s)
	}

	// Fisher-Yates so replays race their originals.
	for i := len(plan.Submissions) - 1; i > 0; i-- {
		j := randomIntn(i + 1)
		plan.Submissions[i], plan.Submissions[j] = plan.Submissions[j], plan.Submissions[i]
	}

	stats.SubmissionsPlanned = len(plan.Submissions)
	logger.Get().Info(ctx, "plan generated",
		logger.String("run", run),
		logger.Int("participants", len(plan.Names)),
		logger.Int("unique", unique),
		logger.Int("replays", replays))
	return plan, nil
}
