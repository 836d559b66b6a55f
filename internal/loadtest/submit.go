package loadtest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/podium/internal/client"
	"github.com/okian/podium/pkg/logger"
)

const progressInterval = time.Second

// key identifies one (participant, problem) pair.
type key struct {
	name    string
	problem int
}

// ledger collects submit replies for verification.
type ledger struct {
	mu       sync.Mutex
	accepted map[key][]client.SubmitResponse
}

func newLedger() *ledger {
	return &ledger{accepted: make(map[key][]client.SubmitResponse)}
}

func (l *ledger) record(s Submission, resp client.SubmitResponse) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key{s.Name, s.Problem}
	l.accepted[k] = append(l.accepted[k], resp)
}

// registerParticipants registers every planned name concurrently.
func registerParticipants(ctx context.Context, config *Config, api *client.Client, plan *Plan, stats *Stats) error {
	logger.Get().Info(ctx, "registering participants",
		logger.Int("participants", len(plan.Names)),
		logger.Int("workers", config.Workers))

	var registered, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for _, name := range plan.Names {
		g.Go(func() error {
			resp, err := api.Register(gctx, name)
			if err != nil || resp.Status != "registered" {
				atomic.AddInt64(&failed, 1)
				if config.Verbose {
					logger.Get().Warn(gctx, "register failed", logger.String("name", name), logger.String("status", resp.Status), logger.Error(err))
				}
				return nil
			}
			atomic.AddInt64(&registered, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats.Registered = int(registered)
	stats.RegisterFailed = int(failed)
	if failed > 0 {
		return fmt.Errorf("%d registrations failed", failed)
	}
	return ctx.Err()
}

// submitAll sends the planned submissions with a bounded worker pool.
func submitAll(ctx context.Context, config *Config, api *client.Client, plan *Plan, stats *Stats) (*ledger, error) {
	logger.Get().Info(ctx, "submitting",
		logger.Int("submissions", len(plan.Submissions)),
		logger.Int("workers", config.Workers))

	var (
		sent, accepted, repeated, failed int64
		lastReport                       atomic.Int64
	)
	l := newLedger()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for _, s := range plan.Submissions {
		g.Go(func() error {
			resp, err := api.Submit(gctx, s.Name, s.Problem)
			total := atomic.AddInt64(&sent, 1)
			switch {
			case err != nil:
				atomic.AddInt64(&failed, 1)
				if config.Verbose {
					logger.Get().Warn(gctx, "submit failed",
						logger.String("name", s.Name), logger.Int("problem", s.Problem), logger.Error(err))
				}
			case resp.Status == "submitted":
				atomic.AddInt64(&accepted, 1)
				l.record(s, resp)
			case resp.Status == "already_submitted":
				atomic.AddInt64(&repeated, 1)
			default:
				atomic.AddInt64(&failed, 1)
			}

			now := time.Now().UnixNano()
			last := lastReport.Load()
			if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
				logger.Get().Info(gctx, "progress",
					logger.Int("sent", int(total)),
					logger.Int("planned", len(plan.Submissions)),
					logger.Int("accepted", int(atomic.LoadInt64(&accepted))),
					logger.Int("repeated", int(atomic.LoadInt64(&repeated))),
					logger.Int("failed", int(atomic.LoadInt64(&failed))))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.SubmissionsSent = int(sent)
	stats.SubmissionsAccepted = int(accepted)
	stats.SubmissionsRepeated = int(repeated)
	stats.SubmissionsFailed = int(failed)

	logger.Get().Info(ctx, "submission completed",
		logger.Int("accepted", stats.SubmissionsAccepted),
		logger.Int("repeated", stats.SubmissionsRepeated),
		logger.Int("failed", stats.SubmissionsFailed))
	return l, ctx.Err()
}
