// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and PODIUM_* env vars.
// - External errors are wrapped with this package's sentinel kinds.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DataDir holds users.json, results.json and their lock files.
	DataDir string `koanf:"data_dir"`

	// TotalProblems bounds valid problem numbers to 1..TotalProblems.
	TotalProblems int `koanf:"total_problems"`

	// ScoreTable maps rank-1 to score; the last entry is the floor.
	ScoreTable []int `koanf:"score_table"`

	// Timezone is the IANA zone used for result timestamps.
	Timezone string `koanf:"timezone"`

	// LockTimeoutMS bounds lock acquisition; 0 waits indefinitely.
	LockTimeoutMS int `koanf:"lock_timeout_ms"`

	// DedupeSize bounds the accepted-key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// QuizScore is the fixed score reported for quiz completions.
	QuizScore int `koanf:"quiz_score"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Telemetry delivery pipeline.
	TelemetryQueueSize  int     `koanf:"telemetry_queue_size"`
	TelemetryWorkers    int     `koanf:"telemetry_workers"`
	TelemetryRatePerSec float64 `koanf:"telemetry_rate_per_sec"`

	// Datadog series API settings. An empty DDAPIKey logs points locally.
	DDSite     string `koanf:"dd_site"`
	DDAPIKey   string `koanf:"dd_api_key"`
	MetricName string `koanf:"metric_name"`
	EnvTag     string `koanf:"env_tag"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8000",
		DataDir:             "data",
		TotalProblems:       7,
		ScoreTable:          []int{9, 8, 7, 6},
		Timezone:            "Asia/Seoul",
		LockTimeoutMS:       0,
		DedupeSize:          50_000,
		QuizScore:           10,
		MaxLeaderboardLimit: 100,
		TelemetryQueueSize:  10_000,
		TelemetryWorkers:    2,
		TelemetryRatePerSec: 20,
		DDSite:              "https://api.datadoghq.com",
		MetricName:          "custom.workshop.user_action",
		EnvTag:              "workshop",
	}
}
