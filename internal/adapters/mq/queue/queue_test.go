package queue

import (
	"context"
	"sync"
	"testing"
)

type job struct {
	id string
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job{id: "run1"}) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.id != "run1" {
		t.Errorf("expected run1, got %v", got.id)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if q.Capacity() != 2 {
		t.Errorf("capacity = %d", q.Capacity())
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job{id: "a"}) || !q.Enqueue(ctx, job{id: "b"}) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job{id: "c"}) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CloseDrains(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(4))
	ctx := context.Background()

	q.Enqueue(ctx, job{id: "a"})
	q.Enqueue(ctx, job{id: "b"})
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, job{id: "c"}) {
		t.Error("expected enqueue after close to fail")
	}

	var ids []string
	for j := range q.Dequeue(ctx) {
		ids = append(ids, j.id)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("drained %v, want [a b]", ids)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q.Enqueue(context.Background(), job{id: "fill"})
	if q.Enqueue(ctx, job{id: "late"}) {
		t.Error("expected enqueue to fail on a full queue with a cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Enqueue(ctx, job{})
			}
		}()
	}
	wg.Wait()

	if l := q.Len(ctx); l != 1000 {
		t.Errorf("expected 1000 queued, got %d", l)
	}
}
