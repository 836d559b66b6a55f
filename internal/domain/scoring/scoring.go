// Package scoring assigns rank and score to accepted submissions.
//
// The engine is pure: callers hand it the history for a problem and a claim,
// and persist whatever it decides. Serialising calls is the caller's job.
package scoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/podium/internal/domain/model"
)

// DefaultScoreTable awards 9, 8 and 7 points to the first three solvers and
// 6 to everyone after.
var DefaultScoreTable = ScoreTable{9, 8, 7, 6}

// Validation errors for score tables.
var (
	ErrEmptyTable       = errors.New("score table is empty")
	ErrNonPositiveScore = errors.New("score must be positive")
	ErrIncreasingScore  = errors.New("score must not increase with rank")
)

// ScoreTable maps rank-1 to score. Ranks past the end get the last entry.
type ScoreTable []int

// Validate reports whether the table is non-empty, positive and
// non-increasing.
func (t ScoreTable) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	for i, score := range t {
		if score <= 0 {
			return fmt.Errorf("%w: rank %d has %d", ErrNonPositiveScore, i+1, score)
		}
		if i > 0 && score > t[i-1] {
			return fmt.Errorf("%w: rank %d has %d after %d", ErrIncreasingScore, i+1, score, t[i-1])
		}
	}
	return nil
}

// ScoreFor returns the score for a 1-based rank.
func (t ScoreTable) ScoreFor(rank int) int {
	switch {
	case len(t) == 0:
		return 0
	case rank < 1:
		return t[0]
	case rank > len(t):
		return t[len(t)-1]
	default:
		return t[rank-1]
	}
}

// Decision tells the caller whether a claim produced a new result.
type Decision int

// Possible decisions.
const (
	Accepted Decision = iota
	AlreadySubmitted
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case AlreadySubmitted:
		return "already_submitted"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Claim is a participant asserting they solved a problem.
type Claim struct {
	Name    string
	Problem int
}

// Outcome is the engine's verdict. Result is set only when Decision is
// Accepted.
type Outcome struct {
	Decision Decision
	Result   model.SubmissionResult
}

// Engine ranks claims against a history of accepted results.
type Engine struct {
	table    ScoreTable
	location *time.Location
}

// NewEngine creates an Engine with the default table in UTC.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		table:    DefaultScoreTable,
		location: time.UTC,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Table returns a copy of the engine's score table.
func (e *Engine) Table() ScoreTable {
	return append(ScoreTable(nil), e.table...)
}

// ScoreFor returns the score awarded at rank.
func (e *Engine) ScoreFor(rank int) int {
	return e.table.ScoreFor(rank)
}

// Accept decides a claim against history. History may span several problems;
// only entries for claim.Problem count towards the rank. The new result is
// stamped with now in the engine's location.
func (e *Engine) Accept(history []model.SubmissionResult, claim Claim, now time.Time) Outcome {
	prior := 0
	for _, r := range history {
		if r.Problem != claim.Problem {
			continue
		}
		if r.Name == claim.Name {
			return Outcome{Decision: AlreadySubmitted}
		}
		prior++
	}

	rank := prior + 1
	return Outcome{
		Decision: Accepted,
		Result: model.SubmissionResult{
			Name:      claim.Name,
			Problem:   claim.Problem,
			Score:     e.table.ScoreFor(rank),
			Rank:      rank,
			Timestamp: now.In(e.location),
		},
	}
}
