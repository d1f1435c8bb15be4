// Package smoke drives a running server with generated matches and checks
// its leaderboard against a local build of the same records.
package smoke

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
	"github.com/okian/prefight/internal/testmatches"
	"github.com/okian/prefight/pkg/logger"
)

// ratingTolerance absorbs float formatting over JSON.
const ratingTolerance = 1e-9

// Expect computes the leaderboard the server should publish for records.
type Expect func(ctx context.Context, records []model.MatchRecord, n int) ([]types.Entry, error)

// Report summarises a smoke run.
type Report struct {
	RunID   string
	Records int
	Rows    int
	Columns int
	Top     []types.Entry
	Took    time.Duration
}

// Run generates matches, submits them and verifies the served leaderboard.
func Run(ctx context.Context, cfg Config, expect Expect, log logger.Logger) (*Report, error) {
	if log == nil {
		log = logger.Nop()
	}
	start := time.Now()

	records, err := testmatches.Generate(ctx, cfg.Matches)
	if err != nil {
		return nil, fmt.Errorf("generate matches: %w", err)
	}
	log.Info(ctx, "submitting matches", logger.Int("records", len(records)), logger.String("url", cfg.BaseURL))

	c := NewClient(cfg.BaseURL, cfg.Timeout)
	built, err := c.PostFeatures(ctx, records)
	if err != nil {
		return nil, err
	}
	if len(built.Rows) != len(records) {
		return nil, fmt.Errorf("%w: %d rows for %d records", ErrMismatch, len(built.Rows), len(records))
	}

	got, err := c.TopN(ctx, cfg.TopN)
	if err != nil {
		return nil, err
	}
	want, err := expect(ctx, records, cfg.TopN)
	if err != nil {
		return nil, fmt.Errorf("local build: %w", err)
	}
	if err := VerifyLeaderboard(want, got); err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:   built.RunID,
		Records: len(records),
		Rows:    len(built.Rows),
		Columns: len(built.Schema),
		Top:     got,
		Took:    time.Since(start),
	}
	log.Info(ctx, "leaderboard verified",
		logger.String("run_id", rep.RunID),
		logger.Int("entries", len(got)),
		logger.Duration("took", rep.Took),
	)
	return rep, nil
}

// VerifyLeaderboard checks got against want entry by entry and that got is
// sorted by rating.
func VerifyLeaderboard(want, got []types.Entry) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: %d entries, want %d", ErrMismatch, len(got), len(want))
	}
	for i := range got {
		g, w := got[i], want[i]
		if g.EntityID != w.EntityID || g.Rank != w.Rank || g.Matches != w.Matches {
			return fmt.Errorf("%w: entry %d is %s#%d, want %s#%d", ErrMismatch, i, g.EntityID, g.Rank, w.EntityID, w.Rank)
		}
		if math.Abs(g.Rating-w.Rating) > ratingTolerance {
			return fmt.Errorf("%w: %s rating %.6f, want %.6f", ErrMismatch, g.EntityID, g.Rating, w.Rating)
		}
		if i > 0 && g.Rating > got[i-1].Rating {
			return fmt.Errorf("%w: entry %d rated above entry %d", ErrMismatch, i, i-1)
		}
	}
	return nil
}
