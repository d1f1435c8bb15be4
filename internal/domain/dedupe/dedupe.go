// Package dedupe tracks match ids to reject repeated records.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen ids together with the position they were first seen at.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// First returns the position at which id was first recorded.
	First(id string) (int, bool)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map guarded by a mutex.
type inMemoryDeduper struct {
	mu   sync.RWMutex
	seen map[string]int
	size atomic.Int64
}

// NewInMemoryDeduper creates an empty deduper. sizeHint preallocates room
// for that many ids.
func NewInMemoryDeduper(sizeHint int) Deduper {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &inMemoryDeduper{seen: make(map[string]int, sizeHint)}
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	d.seen[id] = int(d.size.Load())
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) First(id string) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	pos, ok := d.seen[id]
	return pos, ok
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
