// Package entity holds the per-competitor state accumulated by the engine.
package entity

import (
	"sort"
	"time"

	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
)

// Observation is one raw (numerator, denominator) pair appended by a rolling
// aggregator. Single-valued statistics leave Den unknown.
type Observation struct {
	Num types.Value
	Den types.Value
}

// Series is the append-only history of one statistic with running sums over
// the known entries. PairNum and PairDen only include observations where both
// parts are known.
type Series struct {
	Obs      []Observation
	SumNum   float64
	SumDen   float64
	KnownNum int
	KnownDen int
	PairNum  float64
	PairDen  float64
	Pairs    int
}

// Append records one observation and folds its known parts into the sums.
func (s *Series) Append(o Observation) {
	s.Obs = append(s.Obs, o)
	if x, ok := o.Num.Float(); ok {
		s.SumNum += x
		s.KnownNum++
	}
	if x, ok := o.Den.Float(); ok {
		s.SumDen += x
		s.KnownDen++
	}
	n, nok := o.Num.Float()
	d, dok := o.Den.Float()
	if nok && dok {
		s.PairNum += n
		s.PairDen += d
		s.Pairs++
	}
}

// Bout is one past match seen from the entity's side.
type Bout struct {
	Opponent string
	Date     time.Time
	Outcome  BoutOutcome
}

// BoutOutcome is a match result from the entity's point of view.
type BoutOutcome int

const (
	BoutNonDecisive BoutOutcome = iota
	BoutWin
	BoutLoss
)

// State is the mutable history of one entity. It is owned by a Table and
// mutated only by the stages of the assembler driving that table.
type State struct {
	ID string

	Series map[string]*Series

	Fights     int
	Wins       int
	Losses     int
	Draws      int
	NoContests int
	WinStreak  int
	LoseStreak int

	// Indexed by model.Method.
	MethodWins        [5]int
	MethodAppearances [5]int

	Elo float64

	GlickoR     float64
	GlickoRD    float64
	GlickoRated int
	GlickoLast  time.Time

	Recent   []Bout
	Defeated map[string]struct{}
	LostTo   map[string]struct{}

	Profile   model.Profile
	FirstDate time.Time
	LastDate  time.Time

	// Matches counts the records this state was updated with.
	Matches int
}

func newState(id string) *State {
	return &State{
		ID:       id,
		Series:   make(map[string]*Series),
		Defeated: make(map[string]struct{}),
		LostTo:   make(map[string]struct{}),
	}
}

// SeriesFor returns the named series, creating it empty on first use.
func (s *State) SeriesFor(name string) *Series {
	sr, ok := s.Series[name]
	if !ok {
		sr = &Series{}
		s.Series[name] = sr
	}
	return sr
}

// Lookup returns the named series without creating it.
func (s *State) Lookup(name string) (*Series, bool) {
	sr, ok := s.Series[name]
	return sr, ok
}

// Debut reports whether the entity has no prior matches.
func (s *State) Debut() bool { return s.Matches == 0 }

// Summary is a read-only view of a state at the end of a run.
type Summary struct {
	ID          string      `json:"id"`
	Matches     int         `json:"matches"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`
	Draws       int         `json:"draws"`
	Elo         types.Value `json:"elo"`
	Glicko      types.Value `json:"glicko"`
	GlickoRD    types.Value `json:"glicko_rd"`
	GlickoRated int         `json:"glicko_rated"`
	LastDate    time.Time   `json:"last_date"`
}

// Sorted orders summaries by id.
func Sorted(in []Summary) []Summary {
	sort.Slice(in, func(i, j int) bool { return in[i].ID < in[j].ID })
	return in
}
