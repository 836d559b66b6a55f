package repository

import (
	"sort"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
)

// Standings folds results into one entry per participant, ordered best
// first, with positional ranks starting at 1.
func Standings(results []model.SubmissionResult) []types.Entry {
	byName := make(map[string]*types.Entry)
	order := make([]string, 0)
	for _, r := range results {
		e, ok := byName[r.Name]
		if !ok {
			e = &types.Entry{Name: r.Name}
			byName[r.Name] = e
			order = append(order, r.Name)
		}
		e.Score += r.Score
		e.Solved++
		if r.Timestamp.After(e.LastAccepted) {
			e.LastAccepted = r.Timestamp
		}
	}

	entries := make([]types.Entry, 0, len(order))
	for _, name := range order {
		entries = append(entries, *byName[name])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Before(entries[j])
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// TopN returns the first n standings. n must be positive.
func TopN(results []model.SubmissionResult, n int) ([]types.Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	entries := Standings(results)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Rank returns the standing for name, or ErrNotFound if it has no results.
func Rank(results []model.SubmissionResult, name string) (types.Entry, error) {
	for _, e := range Standings(results) {
		if e.Name == name {
			return e, nil
		}
	}
	return types.Entry{}, ErrNotFound
}

// ProblemResults returns the results for problem ordered by rank.
func ProblemResults(results []model.SubmissionResult, problem int) []model.SubmissionResult {
	out := make([]model.SubmissionResult, 0)
	for _, r := range results {
		if r.Problem == problem {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rank < out[j].Rank
	})
	return out
}
