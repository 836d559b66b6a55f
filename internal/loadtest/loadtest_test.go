package loadtest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/podium/internal/adapters/http/api"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/client"
	"github.com/okian/podium/pkg/jsonfile"
	"github.com/okian/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, float64, ...string) {}

func startServer(t *testing.T) string {
	svc := service.New(
		service.WithDataDir(t.TempDir()),
		service.WithTotalProblems(3),
		service.WithEmitter(nopEmitter{}),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })
	mux := http.NewServeMux()
	api.NewServer(svc, svc, 100).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestGeneratePlan(t *testing.T) {
	Convey("Given a plan configuration with replays", t, func() {
		config := &Config{Participants: 20, Problems: 4, DuplicateRatio: 0.5, NamePrefix: "gen"}
		stats := &Stats{}

		plan, err := generatePlan(context.Background(), config, stats)
		So(err, ShouldBeNil)

		Convey("Then every participant should solve at least one problem", func() {
			So(len(plan.Names), ShouldEqual, 20)
			solved := map[string]int{}
			unique := 0
			for _, s := range plan.Submissions {
				So(s.Problem, ShouldBeBetweenOrEqual, 1, 4)
				if !s.Replay {
					solved[s.Name]++
					unique++
				}
			}
			So(len(solved), ShouldEqual, 20)
			So(stats.SubmissionsPlanned, ShouldEqual, len(plan.Submissions))
			So(len(plan.Submissions)-unique, ShouldEqual, unique/2)
		})

		Convey("Then names should be unique and prefixed", func() {
			seen := map[string]bool{}
			for _, n := range plan.Names {
				So(n, ShouldStartWith, "gen-")
				So(seen[n], ShouldBeFalse)
				seen[n] = true
			}
		})
	})

	Convey("Given an empty configuration", t, func() {
		_, err := generatePlan(context.Background(), &Config{}, &Stats{})

		Convey("Then it should be rejected", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestScoreFor(t *testing.T) {
	Convey("Given the default table", t, func() {
		table := []int{9, 8, 7, 6}

		Convey("Then ranks past the table should get the floor", func() {
			So(scoreFor(table, 1), ShouldEqual, 9)
			So(scoreFor(table, 4), ShouldEqual, 6)
			So(scoreFor(table, 40), ShouldEqual, 6)
			So(scoreFor(nil, 1), ShouldEqual, 0)
		})
	})
}

func TestVerifyResults(t *testing.T) {
	Convey("Given results with a gap in ranks", t, func() {
		config := &Config{Problems: 1, ScoreTable: []int{9, 8}}
		results := map[int][]client.Result{1: {
			{Name: "a", Problem: 1, Rank: 1, Score: 9},
			{Name: "b", Problem: 1, Rank: 3, Score: 8},
		}}

		err := verifyResults(context.Background(), config, &Plan{}, newLedger(), results, &Stats{})

		Convey("Then verification should fail", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "rank 3 at position 2")
		})
	})

	Convey("Given a leaderboard out of order", t, func() {
		board := []client.Entry{{Rank: 1, Score: 5}, {Rank: 2, Score: 9}}

		err := verifyLeaderboard(context.Background(), &Config{TopN: 10}, board, &Stats{})

		Convey("Then verification should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		output := filepath.Join(t.TempDir(), "plans", "plan.json")
		config := &Config{
			BaseURL:        startServer(t),
			Participants:   30,
			Problems:       3,
			DuplicateRatio: 0.3,
			ScoreTable:     []int{9, 8, 7, 6},
			Workers:        8,
			Timeout:        5 * time.Second,
			TopN:           10,
			OutputFile:     output,
		}

		Convey("When the load test runs", func() {
			stats, err := Run(context.Background(), config)

			Convey("Then every check should pass", func() {
				So(err, ShouldBeNil)
				So(stats.Registered, ShouldEqual, 30)
				So(stats.SubmissionsFailed, ShouldEqual, 0)
				So(stats.SubmissionsSent, ShouldEqual, stats.SubmissionsPlanned)
				So(stats.SubmissionsAccepted+stats.SubmissionsRepeated, ShouldEqual, stats.SubmissionsSent)
				So(stats.ProblemsChecked, ShouldEqual, 3)
				So(stats.LeaderboardEntries, ShouldEqual, 10)
			})

			Convey("Then the plan should be saved", func() {
				var plan Plan
				found, err := jsonfile.Read(output, &plan)
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(len(plan.Names), ShouldEqual, 30)
			})
		})
	})

	Convey("Given no server", t, func() {
		config := &Config{BaseURL: "http://127.0.0.1:1", Participants: 1, Problems: 1, Timeout: time.Second}

		Convey("When the load test runs", func() {
			_, err := Run(context.Background(), config)

			Convey("Then the health check should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check failed")
			})
		})
	})
}
