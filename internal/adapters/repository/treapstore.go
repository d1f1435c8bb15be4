package repository

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/prefight/internal/domain/types"
	"github.com/okian/prefight/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then entity id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the leaderboard
// from best to worst. Subtree sizes give ranks in O(log n).

// record stores the rating plus metadata for an entity.
type record struct {
	rating    float64
	deviation types.Value
	matches   int
}

// Snapshot is an immutable view of the leaderboard published after every write.
type Snapshot struct {
	Count    int
	TopCache []types.Entry
	Version  uint64
}

// treap node
type node struct {
	id     string
	rating float64
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aID) should appear before (bRating, bID).
func less(aRating float64, aID string, bRating float64, bID string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aID < bID
}

// priority hashes the id so the tree shape depends only on the key set.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, rating float64) *node {
	if n == nil {
		return &node{id: id, rating: rating, prio: priority(id), size: 1}
	}
	if less(rating, id, n.rating, n.id) {
		n.left = insert(n.left, id, rating)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, rating)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, rating float64) *node {
	if n == nil {
		return nil
	}
	if rating == n.rating && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, rating)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, rating)
		}
	} else if less(rating, id, n.rating, n.id) {
		n.left = deleteNode(n.left, id, rating)
	} else {
		n.right = deleteNode(n.right, id, rating)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order position of (rating, id).
func position(n *node, id string, rating float64) int {
	pos := 0
	for n != nil {
		switch {
		case rating == n.rating && id == n.id:
			return pos + nsize(n.left) + 1
		case less(rating, id, n.rating, n.id):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, byID map[string]record, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, byID, out)
	if len(*out) < limit {
		rec := byID[n.id]
		*out = append(*out, types.Entry{
			Rank:      len(*out) + 1,
			EntityID:  n.id,
			Rating:    rec.rating,
			Deviation: rec.deviation,
			Matches:   rec.matches,
		})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, byID, out)
	}
}

// TreapStore is the in-memory leaderboard.
type TreapStore struct {
	mu           sync.RWMutex
	root         *node
	byID         map[string]record
	topCacheSize int

	snapshot atomic.Pointer[Snapshot]
	version  atomic.Uint64
}

// NewTreapStore constructs an empty leaderboard.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		topCacheSize: 100,
		byID:         make(map[string]record),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{})
	return s
}

func validRating(r Rating) bool {
	return r.EntityID != "" && !math.IsNaN(r.Rating) && !math.IsInf(r.Rating, 0)
}

// ReplaceAll implements Store.ReplaceAll. Invalid input leaves the store unchanged.
func (s *TreapStore) ReplaceAll(ctx context.Context, ratings []Rating) error {
	for _, r := range ratings {
		if !validRating(r) {
			metrics.RecordError("repository", "invalid_rating")
			return ErrInvalidRating
		}
	}

	var root *node
	byID := make(map[string]record, len(ratings))
	for _, r := range ratings {
		if old, ok := byID[r.EntityID]; ok {
			root = deleteNode(root, r.EntityID, old.rating)
		}
		byID[r.EntityID] = record{rating: r.Rating, deviation: r.Deviation, matches: r.Matches}
		root = insert(root, r.EntityID, r.Rating)
	}

	s.mu.Lock()
	s.root, s.byID = root, byID
	s.publishSnapshotLocked()
	s.mu.Unlock()

	metrics.UpdateLeaderboardEntries(len(byID))
	return nil
}

// Upsert implements Store.Upsert with O(log n) expected time.
func (s *TreapStore) Upsert(ctx context.Context, r Rating) error {
	if !validRating(r) {
		metrics.RecordError("repository", "invalid_rating")
		return ErrInvalidRating
	}

	s.mu.Lock()
	if old, ok := s.byID[r.EntityID]; ok {
		s.root = deleteNode(s.root, r.EntityID, old.rating)
	}
	s.byID[r.EntityID] = record{rating: r.Rating, deviation: r.Deviation, matches: r.Matches}
	s.root = insert(s.root, r.EntityID, r.Rating)
	s.publishSnapshotLocked()
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateLeaderboardEntries(count)
	return nil
}

// Rank returns the current rank and rating of an entity in O(log n).
func (s *TreapStore) Rank(ctx context.Context, entityID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[entityID]
	if !ok {
		metrics.RecordError("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}
	return types.Entry{
		Rank:      position(s.root, entityID, rec.rating),
		EntityID:  entityID,
		Rating:    rec.rating,
		Deviation: rec.deviation,
		Matches:   rec.matches,
	}, nil
}

// TopN returns the top N entries ordered by rating desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordError("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	return out, nil
}

// Count returns the number of ranked entities.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Snapshot returns the most recently published view without locking.
func (s *TreapStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// publishSnapshotLocked rebuilds the published view. The write lock must be held.
func (s *TreapStore) publishSnapshotLocked() {
	top := make([]types.Entry, 0, min(s.topCacheSize, len(s.byID)))
	collectTopN(s.root, s.topCacheSize, s.byID, &top)
	s.snapshot.Store(&Snapshot{
		Count:    len(s.byID),
		TopCache: top,
		Version:  s.version.Add(1),
	})
}
