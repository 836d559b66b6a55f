package service

import (
	"time"

	"github.com/okian/podium/internal/adapters/lock"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/telemetry"
	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDataDir sets the directory holding the documents and lock files.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithTotalProblems sets N for the valid problem range 1..N.
func WithTotalProblems(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.totalProblems = n
		}
	}
}

// WithScoreTable sets the rank to score table.
func WithScoreTable(table []int) Option {
	return func(s *Service) {
		if len(table) > 0 {
			s.scoreTable = append([]int(nil), table...)
		}
	}
}

// WithLocation sets the zone used for result timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLockTimeout bounds lock acquisition; zero waits indefinitely.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.lockTimeout = d
		}
	}
}

// WithDedupeSize sets the size of the accepted-submission cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithQuizScore sets the score reported for quiz completions.
func WithQuizScore(score int) Option {
	return func(s *Service) {
		if score >= 0 {
			s.quizScore = score
		}
	}
}

// WithMetricName sets the telemetry metric name.
func WithMetricName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.metricName = name
		}
	}
}

// WithEnvTag sets the env tag attached to telemetry points.
func WithEnvTag(env string) Option {
	return func(s *Service) {
		if env != "" {
			s.envTag = env
		}
	}
}

// WithTelemetry configures the delivery pipeline built at Start.
func WithTelemetry(queueSize, workers int, ratePerSec float64) Option {
	return func(s *Service) {
		if queueSize > 0 {
			s.telemetryQueueSize = queueSize
		}
		if workers > 0 {
			s.telemetryWorkers = workers
		}
		if ratePerSec >= 0 {
			s.telemetryRate = ratePerSec
		}
	}
}

// WithDatadog sends telemetry to the Datadog site using apiKey. Without a
// key, points are logged.
func WithDatadog(site, apiKey string) Option {
	return func(s *Service) {
		if site != "" {
			s.ddSite = site
		}
		s.ddAPIKey = apiKey
	}
}

// WithStore replaces the file store built at Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithGate replaces the file gate built at Start.
func WithGate(gate lock.Gate) Option {
	return func(s *Service) {
		if gate != nil {
			s.gate = gate
		}
	}
}

// WithEmitter replaces the telemetry pipeline built at Start.
func WithEmitter(e telemetry.Emitter) Option {
	return func(s *Service) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithClock overrides the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
