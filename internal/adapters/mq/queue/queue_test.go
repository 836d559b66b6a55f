package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/podium/internal/domain/model"
)

func point(name string, value float64) model.Metric {
	return model.Metric{
		Name:      "custom.workshop.user_action",
		Value:     value,
		Tags:      []string{"name:" + name, "action:submit"},
		Timestamp: time.Now(),
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if !q.Enqueue(ctx, point("alice", 9)) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	eventChan := q.Dequeue(ctx)
	select {
	case got := <-eventChan:
		if got.Value != 9 || got.Tags[0] != "name:alice" {
			t.Errorf("unexpected event %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("expected to dequeue an event")
	}
}

func TestInMemoryQueue_DropsWhenFull(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, point("a", 1)) || !q.Enqueue(ctx, point("b", 2)) {
		t.Fatal("expected first two enqueues to succeed")
	}

	start := time.Now()
	if q.Enqueue(ctx, point("c", 3)) {
		t.Error("expected enqueue to fail when queue is full")
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("enqueue on a full queue blocked for %v", elapsed)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, point("a", 1)) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const (
		numProducers = 10
		numEvents    = 100
	)

	var producers sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		producers.Add(1)
		go func(id int) {
			defer producers.Done()
			for j := 0; j < numEvents; j++ {
				for !q.Enqueue(ctx, point(fmt.Sprintf("p%d", id), float64(j))) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	var consumed sync.WaitGroup
	var mu sync.Mutex
	count := 0
	for i := 0; i < 4; i++ {
		consumed.Add(1)
		go func() {
			defer consumed.Done()
			for range q.Dequeue(ctx) {
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}

	producers.Wait()
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	consumed.Wait()

	if count != numProducers*numEvents {
		t.Errorf("expected %d consumed events, got %d", numProducers*numEvents, count)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, point("a", 1)) || !q.Enqueue(ctx, point("b", 2)) {
		t.Fatal("expected enqueue to succeed")
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if q.Enqueue(ctx, point("c", 3)) {
		t.Error("expected enqueue to fail after closing")
	}

	// Events queued before Close are still delivered, then the channel closes.
	var drained []float64
	timeout := time.After(time.Second)
	eventChan := q.Dequeue(ctx)
	for {
		select {
		case e, ok := <-eventChan:
			if !ok {
				if len(drained) != 2 || drained[0] != 1 || drained[1] != 2 {
					t.Errorf("expected to drain [1 2], got %v", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, e.Value)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
