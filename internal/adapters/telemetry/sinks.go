package telemetry

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// LogSink writes points to the log instead of a backend. It is used when
// no API key is configured.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{logger: l}
}

// Send implements worker.Sender.
func (s *LogSink) Send(ctx context.Context, m model.Metric) error { //nolint:gocritic // hugeParam: matches worker.Sender
	s.logger.Info(ctx, "telemetry point",
		logger.String("metric", m.Name),
		logger.Float64("value", m.Value),
		logger.Any("tags", m.Tags),
	)
	return nil
}

// rateLimitedSender paces delivery with a token bucket.
type rateLimitedSender struct {
	next    worker.Sender
	limiter *rate.Limiter
}

// RateLimited wraps next so that at most perSecond points are sent per
// second, with bursts up to burst. A non-positive perSecond disables
// pacing.
func RateLimited(next worker.Sender, perSecond float64, burst int) worker.Sender {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedSender{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Send waits for a token before forwarding the point.
func (r *rateLimitedSender) Send(ctx context.Context, m model.Metric) error { //nolint:gocritic // hugeParam: matches worker.Sender
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Send(ctx, m)
}
