package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/podium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the workshop defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.TotalProblems, convey.ShouldEqual, 7)
			convey.So(cfg.ScoreTable, convey.ShouldResemble, []int{9, 8, 7, 6})
			convey.So(cfg.Timezone, convey.ShouldEqual, "Asia/Seoul")
			convey.So(cfg.LockTimeout(), convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.QuizScore, convey.ShouldEqual, 10)
			convey.So(cfg.MetricName, convey.ShouldEqual, "custom.workshop.user_action")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.DataDir, convey.ShouldEqual, "data")
				convey.So(cfg.ScoreTable, convey.ShouldResemble, []int{9, 8, 7, 6})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PODIUM_ADDR", ":9090")
			_ = os.Setenv("PODIUM_DATA_DIR", "/var/lib/podium")
			_ = os.Setenv("PODIUM_TOTAL_PROBLEMS", "10")
			_ = os.Setenv("PODIUM_LOCK_TIMEOUT_MS", "2500")
			_ = os.Setenv("PODIUM_DD_API_KEY", "secret")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/var/lib/podium")
				convey.So(cfg.TotalProblems, convey.ShouldEqual, 10)
				convey.So(cfg.LockTimeout(), convey.ShouldEqual, 2500*time.Millisecond)
				convey.So(cfg.DDAPIKey, convey.ShouldEqual, "secret")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":7000"
total_problems: 5
score_table: [20, 10]
timezone: "UTC"
telemetry_workers: 4
`)
			_ = os.Setenv("PODIUM_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should replace defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.TotalProblems, convey.ShouldEqual, 5)
				convey.So(cfg.ScoreTable, convey.ShouldResemble, []int{20, 10})
				convey.So(cfg.Timezone, convey.ShouldEqual, "UTC")
				convey.So(cfg.TelemetryWorkers, convey.ShouldEqual, 4)
				convey.So(cfg.QuizScore, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When both file and environment variables are set", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":7000"
total_problems: 5
`)
			_ = os.Setenv("PODIUM_CONFIG", tmpFile)
			_ = os.Setenv("PODIUM_ADDR", ":7100")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7100")
				convey.So(cfg.TotalProblems, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("PODIUM_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PODIUM_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("PODIUM_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the score table increases with rank", func() {
			tmpFile := createTempConfigFile(t, `score_table: [5, 9]`)
			_ = os.Setenv("PODIUM_CONFIG", tmpFile)

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "score_table")
			})
		})

		convey.Convey("When the timezone is unknown", func() {
			_ = os.Setenv("PODIUM_TIMEZONE", "Mars/Olympus")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "timezone")
			})
		})

		convey.Convey("When numeric variables are malformed", func() {
			_ = os.Setenv("PODIUM_TOTAL_PROBLEMS", "seven")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When total problems is zero", func() {
			_ = os.Setenv("PODIUM_TOTAL_PROBLEMS", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"PODIUM_CONFIG",
		"PODIUM_ADDR",
		"PODIUM_DATA_DIR",
		"PODIUM_TOTAL_PROBLEMS",
		"PODIUM_LOCK_TIMEOUT_MS",
		"PODIUM_DD_API_KEY",
		"PODIUM_TIMEZONE",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	tmpFile, err := os.CreateTemp(t.TempDir(), "podium-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpFile.Name()
}
