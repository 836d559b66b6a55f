package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/okian/podium/internal/adapters/http/api"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/client"
	"github.com/okian/podium/internal/verify"
	"github.com/okian/podium/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, float64, ...string) {}

func startServer(t *testing.T) string {
	svc := service.New(service.WithDataDir(t.TempDir()), service.WithEmitter(nopEmitter{}))
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

func execute(a *app, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	convey.Convey("Given the check command against a live server", t, func() {
		a := &app{
			serverURL: startServer(t),
			stateFile: filepath.Join(t.TempDir(), client.DefaultStateFile),
			verifier: verify.Registry{
				1: verify.CheckerFunc(func(context.Context) verify.Verdict { return verify.Pass }),
				2: verify.CheckerFunc(func(context.Context) verify.Verdict { return verify.Fail }),
			},
		}

		convey.Convey("When run without arguments", func() {
			out, err := execute(a)

			convey.Convey("Then usage should be printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "check register <name>")
			})
		})

		convey.Convey("When given a non-numeric command", func() {
			out, err := execute(a, "bogus")

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, errInvalidCommand), convey.ShouldBeTrue)
				convey.So(out, convey.ShouldContainSubstring, "[ERROR] Invalid command.")
			})
		})

		convey.Convey("When submitting before registering", func() {
			out, err := execute(a, "1")

			convey.Convey("Then it should ask for registration", func() {
				convey.So(errors.Is(err, client.ErrNotRegistered), convey.ShouldBeTrue)
				convey.So(out, convey.ShouldContainSubstring, "Please register first")
			})
		})

		convey.Convey("When registering without a name", func() {
			out, err := execute(a, "register")

			convey.Convey("Then it should ask for one", func() {
				convey.So(errors.Is(err, client.ErrNameRequired), convey.ShouldBeTrue)
				convey.So(out, convey.ShouldContainSubstring, "You must provide a name.")
			})
		})

		convey.Convey("When registering", func() {
			out, err := execute(a, "register", "alice")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the server reply should be shown", func() {
				convey.So(out, convey.ShouldContainSubstring, "[REGISTER]")
				convey.So(out, convey.ShouldContainSubstring, "registered")
			})

			convey.Convey("And registering again", func() {
				out, err := execute(a, "register", "bob")

				convey.Convey("Then the stored name should be reported", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(out, convey.ShouldContainSubstring, "current name : alice")
					convey.So(out, convey.ShouldContainSubstring, "already registered")
				})
			})

			convey.Convey("And submitting a passing problem twice", func() {
				first, err := execute(a, "1")
				convey.So(err, convey.ShouldBeNil)
				second, err := execute(a, "1")
				convey.So(err, convey.ShouldBeNil)

				convey.Convey("Then the first should succeed and the second be skipped", func() {
					convey.So(first, convey.ShouldContainSubstring, "[SUCCESS]")
					convey.So(first, convey.ShouldContainSubstring, "rank    : 1")
					convey.So(second, convey.ShouldContainSubstring, "[SKIP] Problem 1 was already submitted.")
				})

				convey.Convey("And the status should list it", func() {
					out, err := execute(a, "status")
					convey.So(err, convey.ShouldBeNil)
					convey.So(out, convey.ShouldContainSubstring, "completed : [1]")
				})
			})

			convey.Convey("And submitting a failing problem", func() {
				out, err := execute(a, "2")

				convey.Convey("Then it should be reported as incorrect", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(out, convey.ShouldContainSubstring, "[INFO] Incorrect answer. Try again.")
				})
			})

			convey.Convey("And submitting an unsupported problem", func() {
				out, err := execute(a, "9")

				convey.Convey("Then it should be reported as unsupported", func() {
					convey.So(errors.Is(err, verify.ErrUnsupportedProblem), convey.ShouldBeTrue)
					convey.So(out, convey.ShouldContainSubstring, "Unsupported problem number: 9")
				})
			})

			convey.Convey("And resetting", func() {
				out, err := execute(a, "reset")
				convey.So(err, convey.ShouldBeNil)
				status, _ := execute(a, "status")

				convey.Convey("Then the local state should be cleared", func() {
					convey.So(out, convey.ShouldContainSubstring, "[RESET] State has been cleared.")
					convey.So(status, convey.ShouldContainSubstring, "(not registered)")
				})
			})
		})

		convey.Convey("When the server flag overrides the URL", func() {
			out, err := execute(a, "--server", "http://127.0.0.1:1", "register", "carol")

			convey.Convey("Then the request should fail against the new address", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Failed to register")
			})
		})
	})
}
