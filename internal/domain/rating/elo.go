// Package rating implements the Elo and Glicko paired-comparison rating engines.
package rating

import "math"

const (
	DefaultEloK       = 32.0
	DefaultEloInitial = 1500.0
)

// Elo is a logistic paired-comparison rating updater.
type Elo struct {
	K       float64
	Initial float64
}

// EloOption configures an Elo engine.
type EloOption func(*Elo)

// WithK sets the K-factor.
func WithK(k float64) EloOption {
	return func(e *Elo) {
		if k > 0 {
			e.K = k
		}
	}
}

// WithEloInitial sets the rating given to unseen entities.
func WithEloInitial(r float64) EloOption {
	return func(e *Elo) { e.Initial = r }
}

// NewElo returns an Elo engine with K=32 and initial rating 1500 unless overridden.
func NewElo(opts ...EloOption) *Elo {
	e := &Elo{K: DefaultEloK, Initial: DefaultEloInitial}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expected is the probability that a player rated ra beats one rated rb.
func (e *Elo) Expected(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, -(ra-rb)/400))
}

// Update returns both new ratings after a decisive match. scoreA is 1 when
// A won and 0 when B won. Each side's change is computed from its own
// expected score.
func (e *Elo) Update(ra, rb, scoreA float64) (float64, float64, error) {
	if scoreA != 0 && scoreA != 1 {
		return ra, rb, ErrNonBinaryOutcome
	}
	na := ra + e.K*(scoreA-e.Expected(ra, rb))
	nb := rb + e.K*((1-scoreA)-e.Expected(rb, ra))
	return na, nb, nil
}
