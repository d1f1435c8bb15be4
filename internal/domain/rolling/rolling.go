// Package rolling implements the read-then-append accumulators behind every
// historical statistic of the feature engine.
package rolling

import (
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/types"
)

// Kind selects how a series is aggregated.
type Kind int

const (
	// Sum is the total of known observations.
	Sum Kind = iota
	// Mean is the arithmetic mean of known observations.
	Mean
	// Ratio is Σnum / Σden. A zero denominator yields Σnum.
	Ratio
	// Rate is Σnum / Σden over observations where both parts are known.
	// A zero denominator yields unknown.
	Rate
	// Count is the number of observations, known or not.
	Count
)

var kindNames = map[Kind]string{Sum: "sum", Mean: "mean", Ratio: "ratio", Rate: "rate", Count: "count"}

func (k Kind) String() string { return kindNames[k] }

// Aggregator reads and extends one named series on an entity state.
//
// Snapshot must be taken for both participants before Observe is called for
// either of them. Snapshot never mutates state.
type Aggregator struct {
	Name       string
	Kind       Kind
	Complement bool // emit 1 - value
}

// New returns an aggregator over the named series.
func New(name string, kind Kind) Aggregator {
	return Aggregator{Name: name, Kind: kind}
}

// Snapshot returns the aggregate over every observation recorded so far.
// A series with no usable observations is unknown.
func (a Aggregator) Snapshot(st *entity.State) types.Value {
	sr, ok := st.Lookup(a.Name)
	if !ok || len(sr.Obs) == 0 {
		return types.Unknown()
	}
	v := a.aggregate(sr)
	if a.Complement {
		if x, ok := v.Float(); ok {
			return types.Known(1 - x)
		}
	}
	return v
}

func (a Aggregator) aggregate(sr *entity.Series) types.Value {
	switch a.Kind {
	case Sum:
		if sr.KnownNum == 0 {
			return types.Unknown()
		}
		return types.Known(sr.SumNum)
	case Mean:
		if sr.KnownNum == 0 {
			return types.Unknown()
		}
		return types.Known(sr.SumNum / float64(sr.KnownNum))
	case Ratio:
		if sr.KnownNum == 0 {
			return types.Unknown()
		}
		if sr.SumDen == 0 {
			return types.Known(sr.SumNum)
		}
		return types.Known(sr.SumNum / sr.SumDen)
	case Rate:
		if sr.Pairs == 0 || sr.PairDen == 0 {
			return types.Unknown()
		}
		return types.Known(sr.PairNum / sr.PairDen)
	case Count:
		return types.Known(float64(len(sr.Obs)))
	default:
		return types.Unknown()
	}
}

// Observe appends the current record's raw value. den is ignored by Sum,
// Mean and Count.
func (a Aggregator) Observe(st *entity.State, num, den types.Value) {
	st.SeriesFor(a.Name).Append(entity.Observation{Num: num, Den: den})
}
