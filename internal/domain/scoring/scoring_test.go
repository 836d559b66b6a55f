package scoring_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	model "github.com/okian/podium/internal/domain/model"
	scoring "github.com/okian/podium/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScoreTable(t *testing.T) {
	Convey("Given the default score table", t, func() {
		table := scoring.DefaultScoreTable

		Convey("Then ranks should map to the workshop scores", func() {
			So(table.ScoreFor(1), ShouldEqual, 9)
			So(table.ScoreFor(2), ShouldEqual, 8)
			So(table.ScoreFor(3), ShouldEqual, 7)
			So(table.ScoreFor(4), ShouldEqual, 6)
		})

		Convey("Then every rank past the table should get the floor", func() {
			for rank := 5; rank <= 200; rank++ {
				So(table.ScoreFor(rank), ShouldEqual, 6)
			}
		})

		Convey("Then it should validate", func() {
			So(table.Validate(), ShouldBeNil)
		})
	})

	Convey("Given malformed tables", t, func() {
		Convey("When the table is empty", func() {
			So(errors.Is(scoring.ScoreTable{}.Validate(), scoring.ErrEmptyTable), ShouldBeTrue)
		})

		Convey("When a score is zero", func() {
			So(errors.Is(scoring.ScoreTable{3, 0}.Validate(), scoring.ErrNonPositiveScore), ShouldBeTrue)
		})

		Convey("When scores increase with rank", func() {
			err := scoring.ScoreTable{5, 9}.Validate()
			So(errors.Is(err, scoring.ErrIncreasingScore), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "rank 2")
		})

		Convey("When scores plateau", func() {
			So(scoring.ScoreTable{5, 5, 1}.Validate(), ShouldBeNil)
		})
	})
}

func TestEngine_Accept(t *testing.T) {
	Convey("Given an engine in Seoul time", t, func() {
		seoul := time.FixedZone("KST", 9*60*60)
		engine := scoring.NewEngine(scoring.WithLocation(seoul))
		now := time.Date(2025, 3, 14, 1, 0, 0, 0, time.UTC)

		Convey("When the first claim for a problem arrives", func() {
			out := engine.Accept(nil, scoring.Claim{Name: "alice", Problem: 3}, now)

			Convey("Then it should be accepted at rank 1 with the top score", func() {
				So(out.Decision, ShouldEqual, scoring.Accepted)
				So(out.Result.Name, ShouldEqual, "alice")
				So(out.Result.Problem, ShouldEqual, 3)
				So(out.Result.Rank, ShouldEqual, 1)
				So(out.Result.Score, ShouldEqual, 9)
			})

			Convey("Then the timestamp should be now in the engine's zone", func() {
				So(out.Result.Timestamp.Equal(now), ShouldBeTrue)
				So(out.Result.Timestamp.Hour(), ShouldEqual, 10)
			})
		})

		Convey("When alice, bob and alice again claim problem 3", func() {
			var history []model.SubmissionResult

			first := engine.Accept(history, scoring.Claim{Name: "alice", Problem: 3}, now)
			history = append(history, first.Result)
			second := engine.Accept(history, scoring.Claim{Name: "bob", Problem: 3}, now)
			history = append(history, second.Result)
			again := engine.Accept(history, scoring.Claim{Name: "alice", Problem: 3}, now)

			Convey("Then bob should be second and alice should be told she already submitted", func() {
				So(first.Result.Rank, ShouldEqual, 1)
				So(second.Decision, ShouldEqual, scoring.Accepted)
				So(second.Result.Rank, ShouldEqual, 2)
				So(second.Result.Score, ShouldEqual, 8)
				So(again.Decision, ShouldEqual, scoring.AlreadySubmitted)
				So(again.Result, ShouldResemble, model.SubmissionResult{})
			})
		})

		Convey("When history spans several problems", func() {
			history := []model.SubmissionResult{
				{Name: "alice", Problem: 1, Rank: 1},
				{Name: "bob", Problem: 1, Rank: 2},
				{Name: "carol", Problem: 2, Rank: 1},
			}

			out := engine.Accept(history, scoring.Claim{Name: "alice", Problem: 2}, now)

			Convey("Then only results for the claimed problem should count", func() {
				So(out.Decision, ShouldEqual, scoring.Accepted)
				So(out.Result.Rank, ShouldEqual, 2)
				So(out.Result.Score, ShouldEqual, 8)
			})
		})

		Convey("When names differ only by case", func() {
			history := []model.SubmissionResult{{Name: "alice", Problem: 4, Rank: 1}}

			out := engine.Accept(history, scoring.Claim{Name: "Alice", Problem: 4}, now)

			Convey("Then they should be treated as different participants", func() {
				So(out.Decision, ShouldEqual, scoring.Accepted)
				So(out.Result.Rank, ShouldEqual, 2)
			})
		})

		Convey("When many participants claim the same problem in sequence", func() {
			var history []model.SubmissionResult
			for i := 0; i < 25; i++ {
				out := engine.Accept(history, scoring.Claim{Name: fmt.Sprintf("p%02d", i), Problem: 7}, now)
				So(out.Decision, ShouldEqual, scoring.Accepted)
				history = append(history, out.Result)
			}

			Convey("Then ranks should be exactly 1..k with non-increasing scores", func() {
				for i, r := range history {
					So(r.Rank, ShouldEqual, i+1)
					if i > 0 {
						So(r.Score, ShouldBeLessThanOrEqualTo, history[i-1].Score)
					}
				}
			})
		})
	})
}

func TestEngine_Options(t *testing.T) {
	Convey("Given engine options", t, func() {
		Convey("When a custom table is supplied", func() {
			engine := scoring.NewEngine(scoring.WithScoreTable([]int{20, 10}))

			Convey("Then scores should come from it", func() {
				So(engine.ScoreFor(1), ShouldEqual, 20)
				So(engine.ScoreFor(2), ShouldEqual, 10)
				So(engine.ScoreFor(9), ShouldEqual, 10)
				So(engine.Table(), ShouldResemble, scoring.ScoreTable{20, 10})
			})
		})

		Convey("When an invalid table is supplied", func() {
			engine := scoring.NewEngine(scoring.WithScoreTable([]int{1, 2}))

			Convey("Then the default table should be kept", func() {
				So(engine.Table(), ShouldResemble, scoring.DefaultScoreTable)
			})
		})

		Convey("When a nil location is supplied", func() {
			engine := scoring.NewEngine(scoring.WithLocation(nil))
			out := engine.Accept(nil, scoring.Claim{Name: "a", Problem: 1}, time.Now())

			Convey("Then timestamps should be in UTC", func() {
				So(out.Result.Timestamp.Location(), ShouldEqual, time.UTC)
			})
		})

		Convey("When the caller mutates the returned table", func() {
			engine := scoring.NewEngine()
			table := engine.Table()
			table[0] = 100

			Convey("Then the engine should be unaffected", func() {
				So(engine.ScoreFor(1), ShouldEqual, 9)
			})
		})
	})
}

func TestDecision_String(t *testing.T) {
	Convey("Given decisions", t, func() {
		So(scoring.Accepted.String(), ShouldEqual, "accepted")
		So(scoring.AlreadySubmitted.String(), ShouldEqual, "already_submitted")
		So(scoring.Decision(9).String(), ShouldEqual, "decision(9)")
	})
}
