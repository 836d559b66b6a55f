// Package dedupe keeps an in-memory record of submissions already accepted,
// so repeat claims can be answered without taking the results lock.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records accepted submission keys.
//
// Keys are only recorded after the result holding them is durable, and
// results are never removed, so a positive Seen is always truthful. A miss
// says nothing: the key may have been evicted or accepted by another
// process, and the caller must fall back to the store.
type Deduper interface {
	// Seen reports whether id is known to be accepted.
	Seen(ctx context.Context, id string) bool

	// Record marks id as accepted. Recording a known id is a no-op.
	Record(ctx context.Context, id string)

	Size() int64
}

// node represents a single entry in the insertion-ordered list
type node struct {
	id   string
	next *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.id = ""
	n.next = nil
}

// inMemoryDeduper implements Deduper with a map plus a FIFO list.
// For bounded mode (maxSize > 0): the oldest id is evicted first and nodes are pooled.
// For unbounded mode (maxSize <= 0): plain map, no eviction.
type inMemoryDeduper struct {
	mu       sync.RWMutex
	seen     map[string]*node // id -> node pointer for bounded mode, nil for unbounded
	head     *node            // oldest entry
	tail     *node            // newest entry
	maxSize  int              // maximum number of IDs to keep in memory (0 or negative = UNBOUNDED)
	size     atomic.Int64     // current number of entries (atomic)
	nodePool sync.Pool        // pool for reusing node objects
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000, // default max size
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)

	if d.maxSize > 0 {
		d.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}

	return d
}

// Seen reports whether id was recorded and has not been evicted.
func (d *inMemoryDeduper) Seen(_ context.Context, id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.seen[id]
	return ok
}

// Record adds id, evicting the oldest entry when bounded and full.
func (d *inMemoryDeduper) Record(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return
	}

	if d.maxSize <= 0 {
		d.seen[id] = nil
		d.size.Add(1)
		return
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.id = id
	if d.tail == nil {
		d.head = n
	} else {
		d.tail.next = n
	}
	d.tail = n
	d.seen[id] = n
	d.size.Add(1)
}

// evictOldest removes the head of the list.
// Must be called with d.mu.Lock() held.
func (d *inMemoryDeduper) evictOldest() {
	oldest := d.head
	if oldest == nil {
		return
	}
	d.head = oldest.next
	if d.head == nil {
		d.tail = nil
	}
	delete(d.seen, oldest.id)
	oldest.reset()
	d.nodePool.Put(oldest)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
