// Package transitive flags common-opponent wins: A beat someone who beat B.
package transitive

import (
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/model"
)

// DefaultWindow keeps only each entity's most recent match.
const DefaultWindow = 1

// Detector maintains Defeated and LostTo sets on entity states.
type Detector struct {
	window int
}

// Option configures a Detector.
type Option func(*Detector)

// WithWindow sets how many recent matches feed the sets. Zero keeps the full
// history.
func WithWindow(n int) Option {
	return func(d *Detector) {
		if n >= 0 {
			d.window = n
		}
	}
}

// New returns a detector using the single most recent match per entity.
func New(opts ...Option) *Detector {
	d := &Detector{window: DefaultWindow}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Window returns the configured window.
func (d *Detector) Window() int { return d.window }

// Flags returns flagA = 1 when Defeated(a) ∩ LostTo(b) is non-empty, and flagB
// symmetrically.
func (d *Detector) Flags(a, b *entity.State) (flagA, flagB int) {
	if intersects(a.Defeated, b.LostTo) {
		flagA = 1
	}
	if intersects(b.Defeated, a.LostTo) {
		flagB = 1
	}
	return flagA, flagB
}

func intersects(x, y map[string]struct{}) bool {
	if len(y) < len(x) {
		x, y = y, x
	}
	for k := range x {
		if _, ok := y[k]; ok {
			return true
		}
	}
	return false
}

// Record folds rec into both participants' sets. a and b are the states of
// slot A and slot B.
func (d *Detector) Record(rec *model.MatchRecord, a, b *entity.State) {
	oa, ob := entity.BoutNonDecisive, entity.BoutNonDecisive
	if w, ok := rec.Winner(); ok {
		if w == model.SlotA {
			oa, ob = entity.BoutWin, entity.BoutLoss
		} else {
			oa, ob = entity.BoutLoss, entity.BoutWin
		}
	}
	d.push(a, entity.Bout{Opponent: b.ID, Date: rec.Date, Outcome: oa})
	d.push(b, entity.Bout{Opponent: a.ID, Date: rec.Date, Outcome: ob})
}

func (d *Detector) push(st *entity.State, bout entity.Bout) {
	if d.window == 0 {
		st.Recent = append(st.Recent, bout)
		add(st, bout)
		return
	}

	st.Recent = append(st.Recent, bout)
	if over := len(st.Recent) - d.window; over > 0 {
		st.Recent = append(st.Recent[:0], st.Recent[over:]...)
	}
	clear(st.Defeated)
	clear(st.LostTo)
	for _, b := range st.Recent {
		add(st, b)
	}
}

func add(st *entity.State, b entity.Bout) {
	switch b.Outcome {
	case entity.BoutWin:
		st.Defeated[b.Opponent] = struct{}{}
	case entity.BoutLoss:
		st.LostTo[b.Opponent] = struct{}{}
	case entity.BoutNonDecisive:
	}
}
