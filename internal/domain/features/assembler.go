// Package features turns an ordered sequence of match records into causal
// pre-match feature rows.
//
// Every value in the row of record i is computed from records 0..i-1 only.
// The Assembler enforces this with one protocol per record: every stage
// snapshots both participants, then every stage updates with the record.
package features

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/prefight/internal/domain/dedupe"
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
)

const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"

	cancelCheckEvery = 256
)

// Assembler drives the stages over a record sequence.
type Assembler struct {
	stages   []Stage
	schema   []string
	offsets  []int
	parallel bool
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithParallelCategories runs each stage category as its own pass with its
// own entity table. Output is identical to the sequential pass.
func WithParallelCategories(enabled bool) Option {
	return func(a *Assembler) { a.parallel = enabled }
}

// New returns an assembler over stages, which run in the given order.
// Column names must be unique across stages.
func New(stages []Stage, opts ...Option) (*Assembler, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	a := &Assembler{stages: stages, offsets: make([]int, 0, len(stages)+1)}
	seen := make(map[string]string)
	for _, st := range stages {
		a.offsets = append(a.offsets, len(a.schema))
		for _, col := range st.Columns() {
			if owner, dup := seen[col]; dup {
				return nil, fmt.Errorf("%w: %q in %s and %s", ErrDuplicateColumn, col, owner, st.Name())
			}
			seen[col] = st.Name()
			a.schema = append(a.schema, col)
		}
	}
	a.offsets = append(a.offsets, len(a.schema))
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Schema returns the column names shared by Row.A, Row.B and Row.Diff.
func (a *Assembler) Schema() []string {
	out := make([]string, len(a.schema))
	copy(out, a.schema)
	return out
}

// Stages returns the stages in execution order.
func (a *Assembler) Stages() []Stage { return a.stages }

// Parallel reports whether category passes run concurrently.
func (a *Assembler) Parallel() bool { return a.parallel }

// Validate checks the whole sequence before any state is touched: ids are
// present and unique, both participants are named and distinct, dates are
// set and never decrease.
func Validate(ctx context.Context, records []model.MatchRecord) error {
	seen := dedupe.NewInMemoryDeduper(len(records))
	for i := range records {
		r := &records[i]
		invalid := func(reason string) error {
			return &RecordError{Index: i, ID: r.ID, Reason: reason, Err: ErrInvalidRecord}
		}
		switch {
		case r.ID == "":
			return invalid("missing id")
		case r.Date.IsZero():
			return invalid("missing date")
		case r.A.Entity == "" || r.B.Entity == "":
			return invalid("missing participant")
		case r.A.Entity == r.B.Entity:
			return invalid("participant faces itself")
		}
		if seen.SeenAndRecord(ctx, r.ID) {
			first, _ := seen.First(r.ID)
			return &RecordError{Index: i, ID: r.ID, Reason: fmt.Sprintf("first seen at record %d", first), Err: ErrDuplicateRecord}
		}
		if i > 0 && r.Date.Before(records[i-1].Date) {
			return &RecordError{
				Index:  i,
				ID:     r.ID,
				Reason: fmt.Sprintf("%s is before %s", r.Date.Format("2006-01-02"), records[i-1].Date.Format("2006-01-02")),
				Err:    ErrOutOfOrder,
			}
		}
	}
	return nil
}

// Run validates records and returns one row per record. A validation failure
// returns before any row is produced.
func (a *Assembler) Run(ctx context.Context, records []model.MatchRecord) (*Result, error) {
	if err := Validate(ctx, records); err != nil {
		return nil, err
	}

	rows := a.allocate(records)
	groups := a.groups()

	tables := make([]*entity.Table, len(groups))
	if len(groups) == 1 {
		t, err := a.pass(ctx, records, rows, groups[0])
		if err != nil {
			return nil, err
		}
		tables[0] = t
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for gi, idx := range groups {
			g.Go(func() error {
				t, err := a.pass(gctx, records, rows, idx)
				tables[gi] = t
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for i := range rows {
		for c := range rows[i].Diff {
			rows[i].Diff[c] = types.Sub(rows[i].A[c], rows[i].B[c])
		}
	}

	mode := ModeSequential
	if len(groups) > 1 {
		mode = ModeParallel
	}
	return &Result{
		Schema:   a.Schema(),
		Rows:     rows,
		Entities: a.summarize(groups, tables),
		Mode:     mode,
		Passes:   len(groups),
	}, nil
}

func (a *Assembler) allocate(records []model.MatchRecord) []Row {
	width := len(a.schema)
	backing := make([]types.Value, 3*width*len(records))
	rows := make([]Row, len(records))
	for i := range records {
		r := &records[i]
		base := 3 * width * i
		rows[i] = Row{
			Index:       i,
			MatchID:     r.ID,
			Date:        r.Date,
			EntityA:     r.A.Entity,
			EntityB:     r.B.Entity,
			WeightClass: r.WeightClass,
			TitleBout:   r.TitleBout,
			WomensBout:  r.WomensBout(),
			Outcome:     r.Outcome,
			A:           backing[base : base+width : base+width],
			B:           backing[base+width : base+2*width : base+2*width],
			Diff:        backing[base+2*width : base+3*width : base+3*width],
		}
	}
	return rows
}

// groups returns stage indices per pass. Sequential runs use one pass with
// every stage; parallel runs use one pass per category in first-seen order.
func (a *Assembler) groups() [][]int {
	if !a.parallel {
		all := make([]int, len(a.stages))
		for i := range all {
			all[i] = i
		}
		return [][]int{all}
	}
	var order []Category
	byCat := make(map[Category][]int)
	for i, st := range a.stages {
		c := st.Category()
		if _, ok := byCat[c]; !ok {
			order = append(order, c)
		}
		byCat[c] = append(byCat[c], i)
	}
	out := make([][]int, 0, len(order))
	for _, c := range order {
		out = append(out, byCat[c])
	}
	return out
}

// pass runs the snapshot-then-update protocol for the given stages over every
// record, writing only those stages' columns.
func (a *Assembler) pass(ctx context.Context, records []model.MatchRecord, rows []Row, idx []int) (*entity.Table, error) {
	var opts []entity.Option
	for _, si := range idx {
		if in, ok := a.stages[si].(Initializer); ok {
			opts = append(opts, entity.WithInit(in.Init))
		}
	}
	tbl := entity.NewTable(opts...)

	for i := range records {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec := &records[i]
		sa, sb := tbl.Ensure(rec.A.Entity), tbl.Ensure(rec.B.Entity)
		row := &rows[i]

		for _, si := range idx {
			lo, hi := a.offsets[si], a.offsets[si+1]
			a.stages[si].Snapshot(rec, sa, sb, row.A[lo:hi:hi], row.B[lo:hi:hi])
		}
		for _, si := range idx {
			a.stages[si].Update(rec, sa, sb)
		}
		sa.Matches++
		sb.Matches++
	}
	return tbl, nil
}

func (a *Assembler) summarize(groups [][]int, tables []*entity.Table) []entity.Summary {
	byID := make(map[string]*entity.Summary)
	for gi, idx := range groups {
		tbl := tables[gi]
		for _, id := range tbl.IDs() {
			st, _ := tbl.Get(id)
			sum, ok := byID[id]
			if !ok {
				sum = &entity.Summary{ID: id, Matches: st.Matches}
				byID[id] = sum
			}
			for _, si := range idx {
				if s, ok := a.stages[si].(Summarizer); ok {
					s.Summarize(st, sum)
				}
			}
		}
	}
	out := make([]entity.Summary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	return entity.Sorted(out)
}
