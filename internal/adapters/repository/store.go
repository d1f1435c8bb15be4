// Package repository holds the ratings leaderboard.
package repository

import (
	"context"

	"github.com/okian/prefight/internal/domain/types"
)

// Rating is one entity's current rating as written to the leaderboard.
type Rating struct {
	EntityID  string
	Rating    float64
	Deviation types.Value
	Matches   int
}

// Store provides read/write access to the leaderboard.
type Store interface {
	// ReplaceAll swaps the whole leaderboard for ratings.
	ReplaceAll(ctx context.Context, ratings []Rating) error
	// Upsert sets one entity's rating, inserting it when unknown.
	Upsert(ctx context.Context, r Rating) error

	// Rank returns the current rank and rating of an entity.
	// Returns ErrNotFound if the entity is unknown.
	Rank(ctx context.Context, entityID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by rating desc, then id asc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of entities ranked.
	Count(ctx context.Context) int
}
