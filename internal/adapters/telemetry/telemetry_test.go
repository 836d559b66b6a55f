package telemetry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/okian/podium/internal/adapters/telemetry"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingSender struct {
	mu     sync.Mutex
	points []model.Metric
	block  chan struct{}
}

func (r *recordingSender) Send(ctx context.Context, m model.Metric) error { //nolint:gocritic // hugeParam: matches worker.Sender
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, m)
	return nil
}

func (r *recordingSender) snapshot() []model.Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Metric(nil), r.points...)
}

func TestDatadogSink(t *testing.T) {
	Convey("Given a Datadog sink pointed at a test server", t, func() {
		var (
			mu      sync.Mutex
			gotPath string
			gotKey  string
			gotType string
			gotBody []byte
		)
		status := http.StatusAccepted
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			gotPath = r.URL.Path
			gotKey = r.Header.Get("DD-API-KEY")
			gotType = r.Header.Get("Content-Type")
			gotBody = body
			code := status
			mu.Unlock()
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"errors":[]}`))
		}))
		defer srv.Close()

		sink, err := telemetry.NewDatadogSink(srv.URL+"/", "test-key")
		So(err, ShouldBeNil)

		ts := time.Unix(1741910400, 0)
		point := model.Metric{
			Name:      "custom.workshop.user_action",
			Value:     9,
			Tags:      []string{"name:alice", "action:submit", "problem:3", "env:workshop"},
			Timestamp: ts,
		}

		Convey("When sending a point", func() {
			err := sink.Send(context.Background(), point)

			Convey("Then it should post a v1 series payload", func() {
				So(err, ShouldBeNil)
				mu.Lock()
				defer mu.Unlock()
				So(gotPath, ShouldEqual, "/api/v1/series")
				So(gotKey, ShouldEqual, "test-key")
				So(gotType, ShouldEqual, "application/json")

				var payload struct {
					Series []struct {
						Metric string      `json:"metric"`
						Points [][]float64 `json:"points"`
						Type   string      `json:"type"`
						Tags   []string    `json:"tags"`
					} `json:"series"`
				}
				So(json.Unmarshal(gotBody, &payload), ShouldBeNil)
				So(len(payload.Series), ShouldEqual, 1)
				s := payload.Series[0]
				So(s.Metric, ShouldEqual, "custom.workshop.user_action")
				So(s.Type, ShouldEqual, "gauge")
				So(s.Points, ShouldResemble, [][]float64{{1741910400, 9}})
				So(s.Tags, ShouldResemble, point.Tags)
				So(bytes.Contains(gotBody, []byte("1741910400")), ShouldBeTrue)
			})
		})

		Convey("When the backend rejects the point", func() {
			mu.Lock()
			status = http.StatusForbidden
			mu.Unlock()

			err := sink.Send(context.Background(), point)

			Convey("Then an unexpected status error should be returned", func() {
				So(errors.Is(err, telemetry.ErrUnexpectedStatus), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "403")
			})
		})

		Convey("When the backend is unreachable", func() {
			down, _ := telemetry.NewDatadogSink("http://127.0.0.1:1", "k",
				telemetry.WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))

			Convey("Then the transport error should be returned", func() {
				So(down.Send(context.Background(), point), ShouldNotBeNil)
			})
		})
	})

	Convey("Given no API key", t, func() {
		_, err := telemetry.NewDatadogSink("https://api.datadoghq.com", "")

		Convey("Then the sink should refuse to build", func() {
			So(errors.Is(err, telemetry.ErrMissingAPIKey), ShouldBeTrue)
		})
	})
}

func TestPipeline(t *testing.T) {
	Convey("Given a running pipeline", t, func() {
		So(logger.Init(logger.WithOutput(io.Discard)), ShouldBeNil)
		sender := &recordingSender{}
		fixed := time.Date(2025, 3, 14, 1, 0, 0, 0, time.UTC)
		p := telemetry.NewPipeline(sender,
			telemetry.WithWorkers(2),
			telemetry.WithQueueSize(100),
			telemetry.WithClock(func() time.Time { return fixed }),
		)
		ctx := context.Background()
		p.Start(ctx)

		Convey("When points are emitted and the pipeline is stopped", func() {
			tags := []string{"name:alice", "action:register", "env:workshop"}
			p.Emit(ctx, "custom.workshop.user_action", 0, tags...)
			tags[0] = "name:mutated"
			p.Emit(ctx, "custom.workshop.user_action", 9, "name:bob")
			So(p.Stop(ctx), ShouldBeNil)

			Convey("Then every point should be delivered with a copy of its tags", func() {
				points := sender.snapshot()
				So(len(points), ShouldEqual, 2)
				var alice model.Metric
				for _, pt := range points {
					if pt.Value == 0 {
						alice = pt
					}
				}
				So(alice.Tags[0], ShouldEqual, "name:alice")
				So(alice.Timestamp.Equal(fixed), ShouldBeTrue)
			})
		})
	})

	Convey("Given a pipeline whose sink is stuck", t, func() {
		So(logger.Init(logger.WithOutput(io.Discard)), ShouldBeNil)
		sender := &recordingSender{block: make(chan struct{})}
		p := telemetry.NewPipeline(sender, telemetry.WithWorkers(1), telemetry.WithQueueSize(3))
		ctx, cancel := context.WithCancel(context.Background())
		p.Start(ctx)

		Reset(func() {
			close(sender.block)
			_ = p.Stop(context.Background())
			cancel()
		})

		Convey("When more points are emitted than fit", func() {
			start := time.Now()
			for i := 0; i < 50; i++ {
				p.Emit(ctx, "m", float64(i))
			}
			elapsed := time.Since(start)

			Convey("Then Emit should never block and the excess should be dropped", func() {
				So(elapsed, ShouldBeLessThan, time.Second)
				So(p.Len(ctx), ShouldBeLessThanOrEqualTo, p.Cap())
				So(p.Cap(), ShouldEqual, 3)
			})
		})
	})
}

func TestRateLimited(t *testing.T) {
	Convey("Given a rate limited sender", t, func() {
		inner := &recordingSender{}
		limited := telemetry.RateLimited(inner, 20, 1)

		Convey("When sending several points", func() {
			start := time.Now()
			for i := 0; i < 5; i++ {
				So(limited.Send(context.Background(), model.Metric{Name: "m", Value: float64(i)}), ShouldBeNil)
			}

			Convey("Then they should be paced", func() {
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 150*time.Millisecond)
				So(len(inner.snapshot()), ShouldEqual, 5)
			})
		})

		Convey("When the context ends while waiting", func() {
			_ = limited.Send(context.Background(), model.Metric{Name: "m"})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Convey("Then the send should fail without reaching the sink", func() {
				So(limited.Send(ctx, model.Metric{Name: "m"}), ShouldNotBeNil)
				So(len(inner.snapshot()), ShouldEqual, 1)
			})
		})

		Convey("When pacing is disabled", func() {
			_, unwrapped := telemetry.RateLimited(inner, 0, 1).(*recordingSender)
			So(unwrapped, ShouldBeTrue)
		})
	})
}

func TestLogSink(t *testing.T) {
	Convey("Given a log sink", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithFormat("json"), logger.WithOutput(&buf)), ShouldBeNil)
		sink := telemetry.NewLogSink(logger.Get())

		Convey("When sending a point", func() {
			err := sink.Send(context.Background(), model.Metric{Name: "custom.workshop.user_action", Value: 10, Tags: []string{"action:quiz"}})

			Convey("Then it should be written to the log", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, `"metric":"custom.workshop.user_action"`)
				So(buf.String(), ShouldContainSubstring, "action:quiz")
			})
		})
	})
}
