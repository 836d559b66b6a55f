package service_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/sync/errgroup"
)

func TestServiceIntegration_ConcurrentSubmissions(t *testing.T) {
	Convey("Given two service instances sharing one data directory", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dir := t.TempDir()
		emitter := &recordingEmitter{}
		first := newService(dir, emitter, service.WithLockTimeout(10*time.Second))
		second := newService(dir, emitter, service.WithLockTimeout(10*time.Second))
		So(first.Start(ctx), ShouldBeNil)
		So(second.Start(ctx), ShouldBeNil)
		defer func() {
			_ = first.Stop(ctx)
			_ = second.Stop(ctx)
		}()

		const participants = 24
		names := make([]string, participants)
		for i := range names {
			names[i] = fmt.Sprintf("user-%02d", i)
		}

		Convey("When everyone registers concurrently through either instance", func() {
			g, gctx := errgroup.WithContext(ctx)
			for i, name := range names {
				svc := first
				if i%2 == 1 {
					svc = second
				}
				g.Go(func() error {
					_, err := svc.Register(gctx, name)
					return err
				})
			}
			So(g.Wait(), ShouldBeNil)

			Convey("Then no registration should be lost", func() {
				stats, err := first.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.Participants, ShouldEqual, participants)
			})

			Convey("And everyone submits problem 3 concurrently", func() {
				outcomes := make([]service.SubmitOutcome, participants)
				g, gctx := errgroup.WithContext(ctx)
				for i, name := range names {
					svc := first
					if i%2 == 1 {
						svc = second
					}
					g.Go(func() error {
						out, err := svc.Submit(gctx, name, 3)
						outcomes[i] = out
						return err
					})
				}
				So(g.Wait(), ShouldBeNil)

				Convey("Then ranks should be exactly 1..N with no gaps or duplicates", func() {
					ranks := make([]int, 0, participants)
					for _, out := range outcomes {
						So(out.Status, ShouldEqual, model.StatusSubmitted)
						ranks = append(ranks, out.Rank)
					}
					sort.Ints(ranks)
					for i, r := range ranks {
						So(r, ShouldEqual, i+1)
					}
				})

				Convey("Then scores should follow the table with the last entry as floor", func() {
					for _, out := range outcomes {
						switch out.Rank {
						case 1:
							So(out.Score, ShouldEqual, 9)
						case 2:
							So(out.Score, ShouldEqual, 8)
						case 3:
							So(out.Score, ShouldEqual, 7)
						default:
							So(out.Score, ShouldEqual, 6)
						}
					}
				})

				Convey("Then both instances should see the same results", func() {
					a, err := first.Results(ctx, 3)
					So(err, ShouldBeNil)
					b, err := second.Results(ctx, 3)
					So(err, ShouldBeNil)
					So(len(a), ShouldEqual, participants)
					So(a, ShouldResemble, b)
				})

				Convey("And the same submissions are replayed through the other instance", func() {
					g, gctx := errgroup.WithContext(ctx)
					replays := make([]service.SubmitOutcome, participants)
					for i, name := range names {
						svc := second
						if i%2 == 1 {
							svc = first
						}
						g.Go(func() error {
							out, err := svc.Submit(gctx, name, 3)
							replays[i] = out
							return err
						})
					}
					So(g.Wait(), ShouldBeNil)

					Convey("Then every replay should be reported as already submitted", func() {
						for _, out := range replays {
							So(out.Status, ShouldEqual, model.StatusAlreadySubmitted)
						}
						results, _ := first.Results(ctx, 3)
						So(len(results), ShouldEqual, participants)
					})
				})
			})
		})
	})
}

func TestServiceIntegration_Restart(t *testing.T) {
	Convey("Given a service that has recorded results", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		svc := newService(dir, &recordingEmitter{})
		So(svc.Start(ctx), ShouldBeNil)
		_, err := svc.Register(ctx, "alice")
		So(err, ShouldBeNil)
		_, err = svc.Submit(ctx, "alice", 5)
		So(err, ShouldBeNil)
		So(svc.Stop(ctx), ShouldBeNil)

		Convey("When a new instance starts on the same directory", func() {
			restarted := newService(dir, &recordingEmitter{})
			So(restarted.Start(ctx), ShouldBeNil)
			defer func() { _ = restarted.Stop(ctx) }()

			Convey("Then previous state should be visible", func() {
				stats, err := restarted.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.Participants, ShouldEqual, 1)
				So(stats.Results, ShouldEqual, 1)
				So(stats.DedupeSize, ShouldEqual, 1)

				out, err := restarted.Submit(ctx, "alice", 5)
				So(err, ShouldBeNil)
				So(out.Status, ShouldEqual, model.StatusAlreadySubmitted)

				out, err = restarted.Submit(ctx, "alice", 6)
				So(err, ShouldBeNil)
				So(out.Rank, ShouldEqual, 1)
			})
		})
	})
}
