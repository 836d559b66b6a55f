package loadtest

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/okian/podium/internal/client"
	"github.com/okian/podium/pkg/logger"
)

// scoreFor mirrors the server's rank to score table.
func scoreFor(table []int, rank int) int {
	if len(table) == 0 || rank < 1 {
		return 0
	}
	if rank > len(table) {
		return table[len(table)-1]
	}
	return table[rank-1]
}

// fetchResults reads /results for every problem concurrently.
func fetchResults(ctx context.Context, config *Config, api *client.Client) (map[int][]client.Result, error) {
	out := make([][]client.Result, config.Problems)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for p := 1; p <= config.Problems; p++ {
		g.Go(func() error {
			results, err := api.Results(gctx, p)
			if err != nil {
				return fmt.Errorf("results for problem %d: %w", p, err)
			}
			out[p-1] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	byProblem := make(map[int][]client.Result, config.Problems)
	for i, results := range out {
		byProblem[i+1] = results
	}
	return byProblem, nil
}

// verifyResults checks that each problem's ranks are exactly 1..k with the
// expected scores, that every planned pair was accepted exactly once, and
// that the server agrees with the ranks handed out at submit time.
func verifyResults(ctx context.Context, config *Config, plan *Plan, l *ledger, results map[int][]client.Result, stats *Stats) error {
	planned := make(map[key]struct{})
	for _, s := range plan.Submissions {
		planned[key{s.Name, s.Problem}] = struct{}{}
	}

	for problem := 1; problem <= config.Problems; problem++ {
		rows := results[problem]
		seen := make(map[string]struct{}, len(rows))
		for i, r := range rows {
			if r.Problem != problem {
				return fmt.Errorf("problem %d: row %d belongs to problem %d", problem, i, r.Problem)
			}
			if r.Rank != i+1 {
				return fmt.Errorf("problem %d: rank %d at position %d", problem, r.Rank, i+1)
			}
			if want := scoreFor(config.ScoreTable, r.Rank); r.Score != want {
				return fmt.Errorf("problem %d: rank %d scored %d, want %d", problem, r.Rank, r.Score, want)
			}
			if _, dup := seen[r.Name]; dup {
				return fmt.Errorf("problem %d: %s appears twice", problem, r.Name)
			}
			seen[r.Name] = struct{}{}

			k := key{r.Name, problem}
			if _, ours := planned[k]; !ours {
				continue
			}
			replies := l.accepted[k]
			if len(replies) != 1 {
				return fmt.Errorf("problem %d: %s accepted %d times", problem, r.Name, len(replies))
			}
			if replies[0].Rank != r.Rank || replies[0].Score != r.Score {
				return fmt.Errorf("problem %d: %s got rank %d score %d at submit, stored rank %d score %d",
					problem, r.Name, replies[0].Rank, replies[0].Score, r.Rank, r.Score)
			}
		}
		stats.ProblemsChecked++
	}

	if stats.SubmissionsFailed == 0 {
		for k := range planned {
			if _, ok := l.accepted[k]; !ok {
				return fmt.Errorf("%s problem %d was never accepted", k.name, k.problem)
			}
		}
	}

	logger.Get().Info(ctx, "results verified", logger.Int("problems", stats.ProblemsChecked))
	return nil
}

// verifyLeaderboard checks the standings are ordered and positional.
func verifyLeaderboard(ctx context.Context, config *Config, board []client.Entry, stats *Stats) error {
	stats.LeaderboardEntries = len(board)
	for i, e := range board {
		if e.Rank != i+1 {
			return fmt.Errorf("leaderboard: rank %d at position %d", e.Rank, i+1)
		}
	}
	if !slices.IsSortedFunc(board, func(a, b client.Entry) int { return b.Score - a.Score }) {
		return fmt.Errorf("leaderboard: scores not in descending order")
	}

	limit := min(len(board), config.TopN)
	for _, e := range board[:limit] {
		if config.Verbose {
			logger.Get().Info(ctx, "standing",
				logger.Int("rank", e.Rank),
				logger.String("name", e.Name),
				logger.Int("score", e.Score),
				logger.Int("solved", e.Solved))
		}
	}
	return nil
}
