package features

import (
	"time"

	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
)

const daysPerYear = 365.25

// ProfileStage passes through physical attributes and age at the event date.
// Attributes missing on the record fall back to the last known ones.
type ProfileStage struct{}

func (ProfileStage) Name() string       { return "profile" }
func (ProfileStage) Category() Category { return CategoryContext }
func (ProfileStage) Columns() []string  { return []string{"height", "reach", "age"} }

func (ProfileStage) Snapshot(rec *model.MatchRecord, a, b *entity.State, dstA, dstB []types.Value) {
	eachSlot(a, b, dstA, dstB, func(s model.Slot, st *entity.State, dst []types.Value) {
		p := merged(rec.Corner(s).Profile, st.Profile)
		dst[0] = p.HeightIn
		dst[1] = p.ReachIn
		if !p.BirthDate.IsZero() && rec.Date.After(p.BirthDate) {
			dst[2] = types.Known(rec.Date.Sub(p.BirthDate).Hours() / 24 / daysPerYear)
		}
	})
}

func (ProfileStage) Update(rec *model.MatchRecord, a, b *entity.State) {
	a.Profile = merged(rec.A.Profile, a.Profile)
	b.Profile = merged(rec.B.Profile, b.Profile)
}

func merged(cur, known model.Profile) model.Profile {
	if !cur.HeightIn.IsKnown() {
		cur.HeightIn = known.HeightIn
	}
	if !cur.ReachIn.IsKnown() {
		cur.ReachIn = known.ReachIn
	}
	if cur.BirthDate.IsZero() {
		cur.BirthDate = known.BirthDate
	}
	return cur
}

// ActivityStage emits whole calendar months since the previous match.
type ActivityStage struct{}

func (ActivityStage) Name() string       { return "activity" }
func (ActivityStage) Category() Category { return CategoryContext }
func (ActivityStage) Columns() []string  { return []string{"months_since_last"} }

func (ActivityStage) Snapshot(rec *model.MatchRecord, a, b *entity.State, dstA, dstB []types.Value) {
	eachSlot(a, b, dstA, dstB, func(_ model.Slot, st *entity.State, dst []types.Value) {
		if st.LastDate.IsZero() {
			return
		}
		dst[0] = count(monthsBetween(st.LastDate, rec.Date))
	})
}

func (ActivityStage) Update(rec *model.MatchRecord, a, b *entity.State) {
	for _, st := range []*entity.State{a, b} {
		if st.FirstDate.IsZero() {
			st.FirstDate = rec.Date
		}
		st.LastDate = rec.Date
	}
}

func (ActivityStage) Summarize(st *entity.State, sum *entity.Summary) {
	sum.LastDate = st.LastDate
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
