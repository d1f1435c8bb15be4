package features

import (
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/rating"
	"github.com/okian/prefight/internal/domain/types"
)

// EloStage emits the pre-match Elo rating and applies decisive results.
type EloStage struct {
	Engine *rating.Elo
}

// NewEloStage wraps an Elo engine; nil means the default engine.
func NewEloStage(e *rating.Elo) *EloStage {
	if e == nil {
		e = rating.NewElo()
	}
	return &EloStage{Engine: e}
}

func (s *EloStage) Name() string       { return "elo" }
func (s *EloStage) Category() Category { return CategoryRating }
func (s *EloStage) Columns() []string  { return []string{"elo"} }

func (s *EloStage) Init(st *entity.State) { st.Elo = s.Engine.Initial }

func (s *EloStage) Snapshot(_ *model.MatchRecord, a, b *entity.State, dstA, dstB []types.Value) {
	dstA[0] = types.Known(a.Elo)
	dstB[0] = types.Known(b.Elo)
}

func (s *EloStage) Update(rec *model.MatchRecord, a, b *entity.State) {
	scoreA, ok := rec.Result(model.SlotA)
	if !ok {
		return
	}
	na, nb, err := s.Engine.Update(a.Elo, b.Elo, scoreA)
	if err != nil {
		return
	}
	a.Elo, b.Elo = na, nb
}

func (s *EloStage) Summarize(st *entity.State, sum *entity.Summary) {
	sum.Elo = types.Known(st.Elo)
}

// GlickoStage emits the pre-match Glicko rating, its deviation and 95%
// interval, and applies decisive results. Both sides are rated against the
// opponent's pre-match values.
type GlickoStage struct {
	Engine *rating.Glicko
}

// NewGlickoStage wraps a Glicko engine; nil means the default engine.
func NewGlickoStage(g *rating.Glicko) *GlickoStage {
	if g == nil {
		g = rating.NewGlicko()
	}
	return &GlickoStage{Engine: g}
}

func (s *GlickoStage) Name() string       { return "glicko" }
func (s *GlickoStage) Category() Category { return CategoryRating }
func (s *GlickoStage) Columns() []string {
	return []string{"glicko", "glicko_rd", "glicko_ci_low", "glicko_ci_high"}
}

func (s *GlickoStage) Init(st *entity.State) {
	seed := s.Engine.Initial()
	st.GlickoR, st.GlickoRD = seed.R, seed.RD
}

func (s *GlickoStage) Snapshot(_ *model.MatchRecord, a, b *entity.State, dstA, dstB []types.Value) {
	eachSlot(a, b, dstA, dstB, func(_ model.Slot, st *entity.State, dst []types.Value) {
		r := rating.GlickoRating{R: st.GlickoR, RD: st.GlickoRD}
		lo, hi := r.Interval()
		dst[0] = types.Known(r.R)
		dst[1] = types.Known(r.RD)
		dst[2] = types.Known(lo)
		dst[3] = types.Known(hi)
	})
}

func (s *GlickoStage) Update(rec *model.MatchRecord, a, b *entity.State) {
	scoreA, ok := rec.Result(model.SlotA)
	if !ok {
		return
	}
	preA := rating.GlickoRating{R: a.GlickoR, RD: a.GlickoRD}
	preB := rating.GlickoRating{R: b.GlickoR, RD: b.GlickoRD}

	na, errA := s.Engine.Update(preA, preB, a.GlickoRated, s.Engine.Periods(a.GlickoLast, rec.Date), scoreA)
	nb, errB := s.Engine.Update(preB, preA, b.GlickoRated, s.Engine.Periods(b.GlickoLast, rec.Date), 1-scoreA)
	if errA != nil || errB != nil {
		return
	}
	for _, side := range []struct {
		st *entity.State
		r  rating.GlickoRating
	}{{a, na}, {b, nb}} {
		side.st.GlickoR, side.st.GlickoRD = side.r.R, side.r.RD
		side.st.GlickoRated++
		side.st.GlickoLast = rec.Date
	}
}

func (s *GlickoStage) Summarize(st *entity.State, sum *entity.Summary) {
	sum.Glicko = types.Known(st.GlickoR)
	sum.GlickoRD = types.Known(st.GlickoRD)
	sum.GlickoRated = st.GlickoRated
}
