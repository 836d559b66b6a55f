// Package lock provides named exclusive locks that hold across goroutines
// and processes sharing a data directory.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/podium/pkg/metrics"
)

// Lock scopes used by the leaderboard.
const (
	ScopeResults      = "results"
	ScopeParticipants = "participants"
)

// Backoff bounds for polling a lock held by another process.
const (
	defaultMinBackoff = 100 * time.Millisecond
	defaultMaxBackoff = 2 * time.Second
)

// Gate runs a function while holding an exclusive lock on a named scope.
type Gate interface {
	// WithExclusiveLock acquires scope, runs body and releases scope on
	// every exit path, including a panic in body. The lock timeout bounds
	// acquisition only; body receives ctx unchanged.
	WithExclusiveLock(ctx context.Context, scope string, body func(ctx context.Context) error) error
}

// FileGate serialises holders of a scope in two layers. Goroutines in this
// process queue on a per-scope semaphore, and the winner then takes an
// flock on <dir>/<scope>.lock to exclude other processes. The kernel drops
// the flock when the descriptor closes, so a crashed holder never leaves
// the scope locked.
type FileGate struct {
	dir        string
	timeout    time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration

	mu     sync.Mutex
	scopes map[string]chan struct{}
}

var _ Gate = (*FileGate)(nil)

// NewFileGate creates a FileGate keeping lock files in dir.
func NewFileGate(dir string, opts ...Option) *FileGate {
	g := &FileGate{
		dir:        dir,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		scopes:     make(map[string]chan struct{}),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Path returns the lock file used for scope.
func (g *FileGate) Path(scope string) string {
	return filepath.Join(g.dir, scope+".lock")
}

// WithExclusiveLock implements Gate.
func (g *FileGate) WithExclusiveLock(ctx context.Context, scope string, body func(ctx context.Context) error) error {
	if scope == "" || strings.ContainsAny(scope, `/\`) || scope == "." || scope == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	acquireCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	sem := g.semaphore(scope)
	select {
	case sem <- struct{}{}:
	case <-acquireCtx.Done():
		return g.acquireError(ctx, scope, acquireCtx.Err())
	}
	defer func() { <-sem }()

	f, err := g.lockFile(acquireCtx, scope)
	if err != nil {
		if ctxErr := acquireCtx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return g.acquireError(ctx, scope, ctxErr)
		}
		return err
	}
	metrics.RecordLockWait(scope, msSince(start))

	held := time.Now()
	defer func() {
		_ = unlockFile(f)
		_ = f.Close()
		metrics.RecordLockHeld(scope, msSince(held))
	}()

	return body(ctx)
}

// semaphore returns the in-process queue for scope.
func (g *FileGate) semaphore(scope string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	sem, ok := g.scopes[scope]
	if !ok {
		sem = make(chan struct{}, 1)
		g.scopes[scope] = sem
	}
	return sem
}

// lockFile opens the scope's lock file and polls for the flock with
// exponential backoff until it is granted or ctx ends.
func (g *FileGate) lockFile(ctx context.Context, scope string) (*os.File, error) {
	if err := os.MkdirAll(g.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(g.Path(scope), os.O_CREATE|os.O_RDWR, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	backoff := g.minBackoff
	for {
		ok, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("flock %s: %w", scope, err)
		}
		if ok {
			return f, nil
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = f.Close()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > g.maxBackoff {
			backoff = g.maxBackoff
		}
	}
}

// acquireError maps an expired acquisition context to ErrLockTimeout, or
// passes the caller's own cancellation through.
func (g *FileGate) acquireError(parent context.Context, scope string, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("acquire %s lock: %w", scope, parent.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		metrics.RecordLockTimeout(scope)
		return fmt.Errorf("%w: %s after %v", ErrLockTimeout, scope, g.timeout)
	}
	return fmt.Errorf("acquire %s lock: %w", scope, err)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
