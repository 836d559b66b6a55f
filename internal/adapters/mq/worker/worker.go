// Package worker delivers queued telemetry points to a sink.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/podium/internal/adapters/mq/queue"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 2
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = queue.Event

// Sender delivers one telemetry point. Errors are logged and counted; the
// point is not retried.
type Sender interface {
	Send(ctx context.Context, e Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker delivers events from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for delivering events.
type InMemoryWorker struct {
	queue  Queue
	sender Sender
	name   string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, sender Sender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		sender:   sender,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Queue closed and drained.
				return
			}
			select {
			case <-w.shutdown:
				return
			default:
			}
			if err := w.deliver(ctx, event); err != nil {
				w.logger.Warn(ctx, "telemetry delivery failed",
					logger.String("metric", event.Name),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// deliver sends a single event.
func (w *InMemoryWorker) deliver(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	start := time.Now()
	err := w.sender.Send(ctx, event)
	metrics.RecordTelemetryLatency(float64(time.Since(start).Microseconds()) / 1000)

	if err != nil {
		metrics.RecordTelemetryFailed()
		metrics.RecordErrorByComponent("telemetry", "send_failed")
		return fmt.Errorf("send %s: %w", event.Name, err)
	}
	metrics.RecordTelemetrySent()
	return nil
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, sender Sender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("telemetry-worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, sender, workerOpts...)
	}
	pool.logger = pool.workers[0].logger

	metrics.UpdateTelemetryWorkers(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater refreshes the queue depth gauge while the pool runs.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	lener, ok := p.queue.(interface{ Len(context.Context) int })
	if !ok {
		return
	}
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			lener.Len(ctx)
		}
	}
}

// Shutdown closes the queue and waits for workers to deliver what is left.
// Workers still busy when ctx ends are stopped without draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	select {
	case <-p.shutdown:
		return nil
	default:
		close(p.shutdown)
	}

	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			_ = worker.Shutdown(shutdownCtx)
		}
	}

	metrics.UpdateTelemetryWorkers(0)
	if timedOut {
		return fmt.Errorf("telemetry drain: %w", shutdownCtx.Err())
	}
	return nil
}
