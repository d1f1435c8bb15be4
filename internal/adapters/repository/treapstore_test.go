package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/okian/prefight/internal/domain/types"
)

func mustUpsert(t *testing.T, s *TreapStore, id string, rating float64) {
	t.Helper()
	if err := s.Upsert(context.Background(), Rating{EntityID: id, Rating: rating, Matches: 1}); err != nil {
		t.Fatalf("upsert %s: %v", id, err)
	}
}

func TestTreapStore_OrderingAndTies(t *testing.T) {
	ctx := context.Background()
	s := NewTreapStore()

	mustUpsert(t, s, "c", 1500)
	mustUpsert(t, s, "a", 1500)
	mustUpsert(t, s, "b", 1600)
	mustUpsert(t, s, "d", 1400)

	top, err := s.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("topn: %v", err)
	}
	want := []string{"b", "a", "c", "d"}
	if len(top) != len(want) {
		t.Fatalf("got %d entries, want %d", len(top), len(want))
	}
	for i, e := range top {
		if e.EntityID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, e.EntityID, want[i])
		}
		if e.Rank != i+1 {
			t.Errorf("position %d: rank %d", i, e.Rank)
		}
	}
}

func TestTreapStore_UpsertMovesEntity(t *testing.T) {
	ctx := context.Background()
	s := NewTreapStore()
	mustUpsert(t, s, "a", 1500)
	mustUpsert(t, s, "b", 1510)

	e, err := s.Rank(ctx, "a")
	if err != nil || e.Rank != 2 {
		t.Fatalf("before: rank=%d err=%v", e.Rank, err)
	}

	mustUpsert(t, s, "a", 1530)
	e, err = s.Rank(ctx, "a")
	if err != nil || e.Rank != 1 || e.Rating != 1530 {
		t.Fatalf("after: %+v err=%v", e, err)
	}
	if s.Count(ctx) != 2 {
		t.Errorf("count = %d, want 2", s.Count(ctx))
	}
}

func TestTreapStore_RankMatchesSort(t *testing.T) {
	ctx := context.Background()
	s := NewTreapStore()

	type kv struct {
		id string
		r  float64
	}
	var all []kv
	for i := range 500 {
		id := fmt.Sprintf("e%03d", i)
		r := float64(1200 + (i*7919)%600)
		all = append(all, kv{id, r})
		mustUpsert(t, s, id, r)
	}
	sort.Slice(all, func(i, j int) bool { return less(all[i].r, all[i].id, all[j].r, all[j].id) })

	for i, x := range all {
		e, err := s.Rank(ctx, x.id)
		if err != nil {
			t.Fatalf("rank %s: %v", x.id, err)
		}
		if e.Rank != i+1 {
			t.Fatalf("rank %s = %d, want %d", x.id, e.Rank, i+1)
		}
	}
}

func TestTreapStore_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	s := NewTreapStore()
	mustUpsert(t, s, "old", 2000)

	err := s.ReplaceAll(ctx, []Rating{
		{EntityID: "x", Rating: 1450, Deviation: types.Known(80), Matches: 4},
		{EntityID: "y", Rating: 1550, Matches: 4},
		{EntityID: "x", Rating: 1460, Deviation: types.Known(75), Matches: 5},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := s.Rank(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old entity should be gone, err=%v", err)
	}
	if s.Count(ctx) != 2 {
		t.Fatalf("count = %d, want 2", s.Count(ctx))
	}
	x, _ := s.Rank(ctx, "x")
	if x.Rank != 2 || x.Rating != 1460 || x.Matches != 5 {
		t.Errorf("x = %+v", x)
	}
	if d, ok := x.Deviation.Float(); !ok || d != 75 {
		t.Errorf("x deviation = %v", x.Deviation)
	}

	err = s.ReplaceAll(ctx, []Rating{{EntityID: "", Rating: 1}})
	if !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("want ErrInvalidRating, got %v", err)
	}
	if s.Count(ctx) != 2 {
		t.Errorf("failed replace must not change the store")
	}
}

func TestTreapStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewTreapStore()

	if _, err := s.Rank(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rank missing: %v", err)
	}
	if _, err := s.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("topn 0: %v", err)
	}
	top, err := s.TopN(ctx, 5)
	if err != nil || len(top) != 0 {
		t.Errorf("empty topn = %v, %v", top, err)
	}
}

func TestTreapStore_Snapshot(t *testing.T) {
	s := NewTreapStore(WithTopCacheSize(2))
	if snap := s.Snapshot(); snap.Count != 0 || snap.Version != 0 {
		t.Fatalf("initial snapshot = %+v", snap)
	}

	mustUpsert(t, s, "a", 1500)
	mustUpsert(t, s, "b", 1600)
	mustUpsert(t, s, "c", 1700)

	snap := s.Snapshot()
	if snap.Count != 3 || snap.Version != 3 {
		t.Errorf("snapshot = count %d version %d", snap.Count, snap.Version)
	}
	if len(snap.TopCache) != 2 || snap.TopCache[0].EntityID != "c" || snap.TopCache[1].EntityID != "b" {
		t.Errorf("top cache = %+v", snap.TopCache)
	}
}

func TestTreapStore_ShapeIsDeterministic(t *testing.T) {
	build := func(order []int) *TreapStore {
		s := NewTreapStore()
		for _, i := range order {
			mustUpsert(t, s, fmt.Sprintf("e%d", i), float64(i))
		}
		return s
	}
	a := build([]int{1, 2, 3, 4, 5, 6, 7, 8})
	b := build([]int{8, 3, 5, 1, 7, 2, 6, 4})

	var walk func(x, y *node) bool
	walk = func(x, y *node) bool {
		if x == nil || y == nil {
			return x == y
		}
		return x.id == y.id && x.size == y.size && walk(x.left, y.left) && walk(x.right, y.right)
	}
	if !walk(a.root, b.root) {
		t.Error("same key set should produce the same tree")
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewTreapStore()

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range 100 {
				id := fmt.Sprintf("w%d-%d", w, i)
				_ = s.Upsert(ctx, Rating{EntityID: id, Rating: float64(1400 + i)})
				_, _ = s.Rank(ctx, id)
				_, _ = s.TopN(ctx, 10)
			}
		}(w)
	}
	wg.Wait()

	if s.Count(ctx) != 400 {
		t.Errorf("count = %d, want 400", s.Count(ctx))
	}
}

func BenchmarkTreapStore_Upsert(b *testing.B) {
	ctx := context.Background()
	s := NewTreapStore()
	ids := make([]string, 10000)
	for i := range ids {
		ids[i] = fmt.Sprintf("entity-%d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Upsert(ctx, Rating{EntityID: ids[i%len(ids)], Rating: float64(1000 + i%1000)})
	}
}

func BenchmarkTreapStore_Rank(b *testing.B) {
	ctx := context.Background()
	s := NewTreapStore()
	for i := range 10000 {
		_ = s.Upsert(ctx, Rating{EntityID: fmt.Sprintf("entity-%d", i), Rating: float64(1000 + i%1000)})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Rank(ctx, fmt.Sprintf("entity-%d", i%10000))
	}
}
