// Package dedupe suppresses re-submission of recently seen log lines.
package dedupe

import (
	"context"
	"sync"
)

// Default window size; roughly matches the burst of lines replayed when a
// tail position is lost and the file is reopened.
const defaultMaxSize = 200

// Deduper records recently seen event keys. It is a bounded courtesy filter
// on the client side, not a server-side correctness guarantee.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen inside the
	// window and records it if not. Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Size returns the number of keys currently held.
	Size() int
}

// ringDeduper implements Deduper with a fixed-capacity ring buffer. Once the
// window is full every insertion evicts the oldest key.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
}

// New creates a bounded deduper.
func New(opts ...Option) Deduper {
	d := &ringDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.maxSize)
	d.ring = make([]string, d.maxSize)
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = key
	d.seen[key] = struct{}{}
	d.next = (d.next + 1) % d.maxSize
	return false
}

func (d *ringDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
