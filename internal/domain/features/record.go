package features

import (
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
)

// RecordStage tracks win/loss counters and streaks.
//
// A win increments the winner's win streak and zeroes its lose streak; the
// loser is mirrored. Draws, no-contests and unknown outcomes zero both
// streaks and leave wins and losses alone.
type RecordStage struct{}

func (RecordStage) Name() string       { return "record" }
func (RecordStage) Category() Category { return CategoryRecord }
func (RecordStage) Columns() []string {
	return []string{"win_streak", "lose_streak", "num_fights", "num_wins", "num_losses", "num_draws", "win_pct"}
}

func (RecordStage) Snapshot(_ *model.MatchRecord, a, b *entity.State, dstA, dstB []types.Value) {
	eachSlot(a, b, dstA, dstB, func(_ model.Slot, st *entity.State, dst []types.Value) {
		if st.Debut() || st.Fights == 0 {
			return
		}
		dst[0] = count(st.WinStreak)
		dst[1] = count(st.LoseStreak)
		dst[2] = count(st.Fights)
		dst[3] = count(st.Wins)
		dst[4] = count(st.Losses)
		dst[5] = count(st.Draws)
		dst[6] = types.Known(float64(st.Wins) / float64(st.Fights))
	})
}

func (RecordStage) Update(rec *model.MatchRecord, a, b *entity.State) {
	a.Fights++
	b.Fights++

	w, ok := rec.Winner()
	if !ok {
		a.WinStreak, a.LoseStreak = 0, 0
		b.WinStreak, b.LoseStreak = 0, 0
		if rec.Outcome == model.OutcomeDraw {
			a.Draws++
			b.Draws++
		} else {
			a.NoContests++
			b.NoContests++
		}
		return
	}

	winner, loser := a, b
	if w == model.SlotB {
		winner, loser = b, a
	}
	winner.Wins++
	winner.WinStreak++
	winner.LoseStreak = 0
	loser.Losses++
	loser.LoseStreak++
	loser.WinStreak = 0
}

func (RecordStage) Summarize(st *entity.State, sum *entity.Summary) {
	sum.Wins = st.Wins
	sum.Losses = st.Losses
	sum.Draws = st.Draws
}

// MethodStage tracks wins and win percentages per method of victory.
//
// Appearances count every match resolved by a method, whoever won and draws
// included, so a percentage is category wins over category appearances.
type MethodStage struct{}

func (MethodStage) Name() string       { return "method" }
func (MethodStage) Category() Category { return CategoryRecord }
func (MethodStage) Columns() []string {
	cols := make([]string, 0, 2*len(model.Methods))
	for _, m := range model.Methods {
		cols = append(cols, m.String()+"_wins")
	}
	for _, m := range model.Methods {
		cols = append(cols, m.String()+"_win_pct")
	}
	return cols
}

func (MethodStage) Snapshot(_ *model.MatchRecord, a, b *entity.State, dstA, dstB []types.Value) {
	n := len(model.Methods)
	eachSlot(a, b, dstA, dstB, func(_ model.Slot, st *entity.State, dst []types.Value) {
		for i, m := range model.Methods {
			if !st.Debut() {
				dst[i] = count(st.MethodWins[m])
			}
			if apps := st.MethodAppearances[m]; apps > 0 {
				dst[n+i] = types.Known(float64(st.MethodWins[m]) / float64(apps))
			}
		}
	})
}

func (MethodStage) Update(rec *model.MatchRecord, a, b *entity.State) {
	m := rec.MethodCategory()
	if m == model.MethodNone {
		return
	}
	a.MethodAppearances[m]++
	b.MethodAppearances[m]++
	if w, ok := rec.Winner(); ok {
		if w == model.SlotA {
			a.MethodWins[m]++
		} else {
			b.MethodWins[m]++
		}
	}
}
