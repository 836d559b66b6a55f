package telemetry

import (
	"net/http"
	"time"

	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithQueueSize bounds the number of undelivered points.
func WithQueueSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.size = size
		}
	}
}

// WithWorkers sets the number of delivery workers.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the point timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// DatadogOption applies a configuration option to the DatadogSink.
type DatadogOption func(*DatadogSink)

// WithHTTPClient replaces the sink's HTTP client.
func WithHTTPClient(c *http.Client) DatadogOption {
	return func(s *DatadogSink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithMetricType sets the series type, "gauge" by default.
func WithMetricType(t string) DatadogOption {
	return func(s *DatadogSink) {
		if t != "" {
			s.metricType = t
		}
	}
}
