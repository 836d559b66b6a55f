// Package telemetry reports leaderboard actions to an external monitoring
// backend without ever blocking or failing the caller.
package telemetry

import (
	"context"
	"time"

	"github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// Emitter accepts telemetry points. Emit must not block on delivery.
type Emitter interface {
	Emit(ctx context.Context, name string, value float64, tags ...string)
}

// Pipeline buffers points in a bounded queue and delivers them with a pool
// of workers. Points that do not fit the queue are dropped.
type Pipeline struct {
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	now     func() time.Time
	logger  logger.Logger
	workers int
	size    int
}

var _ Emitter = (*Pipeline)(nil)

// NewPipeline creates a pipeline delivering to sender. Call Start before
// emitting and Stop to drain.
func NewPipeline(sender worker.Sender, opts ...Option) *Pipeline {
	p := &Pipeline{
		now:     time.Now,
		workers: 2,
		size:    10000,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logger.Get().Named("telemetry")
	}
	p.queue = queue.NewInMemoryQueue(queue.WithCapacity(p.size))
	p.pool = worker.NewPool(p.workers, p.queue, sender, worker.WithLogger(p.logger))

	return p
}

// Start launches the delivery workers.
func (p *Pipeline) Start(ctx context.Context) {
	p.pool.Start(ctx)
}

// Stop closes the queue and waits for queued points to be delivered, up to
// ctx's deadline.
func (p *Pipeline) Stop(ctx context.Context) error {
	return p.pool.Shutdown(ctx)
}

// Emit implements Emitter.
func (p *Pipeline) Emit(ctx context.Context, name string, value float64, tags ...string) {
	point := model.Metric{
		Name:      name,
		Value:     value,
		Tags:      append([]string(nil), tags...),
		Timestamp: p.now(),
	}
	if !p.queue.Enqueue(ctx, point) {
		p.logger.Debug(ctx, "telemetry point dropped",
			logger.String("metric", name),
			logger.Any("tags", tags),
		)
	}
}

// Len returns the number of points waiting for delivery.
func (p *Pipeline) Len(ctx context.Context) int {
	return p.queue.Len(ctx)
}

// Cap returns the queue capacity.
func (p *Pipeline) Cap() int {
	return p.queue.Cap()
}
