package features

import (
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
)

// Category groups stages that may run as an independent pass.
type Category string

const (
	CategoryRecord    Category = "record"
	CategoryStriking  Category = "striking"
	CategoryGrappling Category = "grappling"
	CategoryRating    Category = "rating"
	CategoryContext   Category = "context"
)

// Stage is one step of the per-record protocol. For every record the
// assembler calls Snapshot on every stage, then Update on every stage, in
// the order the stages were given.
//
// A stage reads only the state fields it maintains itself, plus ID and
// Matches. Stages of different categories can then run as separate passes.
type Stage interface {
	Name() string
	Category() Category
	Columns() []string

	// Snapshot writes the pre-record values of slot A and slot B into dstA and
	// dstB, which have len(Columns()). It must not mutate a or b.
	Snapshot(rec *model.MatchRecord, a, b *entity.State, dstA, dstB []types.Value)

	// Update folds rec into both states.
	Update(rec *model.MatchRecord, a, b *entity.State)
}

// Initializer is implemented by stages that seed state on first sight.
type Initializer interface {
	Init(st *entity.State)
}

// Summarizer is implemented by stages that contribute to entity summaries.
type Summarizer interface {
	Summarize(st *entity.State, sum *entity.Summary)
}

// eachSlot calls fn for slot A then slot B with the matching state and destination.
func eachSlot(a, b *entity.State, dstA, dstB []types.Value, fn func(s model.Slot, st *entity.State, dst []types.Value)) {
	fn(model.SlotA, a, dstA)
	fn(model.SlotB, b, dstB)
}

func count(n int) types.Value { return types.Known(float64(n)) }
