package rating

import (
	"math"
	"time"
)

const (
	DefaultGlickoRating = 1500.0
	DefaultGlickoRD     = 350.0
	DefaultGlickoC      = 34.0
	DefaultGlickoRDCap  = 350.0

	// ci95 is the z-score of a two-sided 95% interval.
	ci95 = 1.96
)

var glickoQ = math.Ln10 / 400 //nolint:gochecknoglobals // constant expression over math.Ln10

// GlickoRating is a rating with its deviation.
type GlickoRating struct {
	R  float64
	RD float64
}

// Interval returns the 95% confidence bounds r ± 1.96·RD.
func (g GlickoRating) Interval() (lo, hi float64) {
	return g.R - ci95*g.RD, g.R + ci95*g.RD
}

// Glicko is a variance-aware rating updater. Every match is its own rating
// period against a single opponent.
type Glicko struct {
	InitialRating float64
	InitialRD     float64
	C             float64
	RDCap         float64
	// PeriodDays, when positive, measures inactivity in days per period.
	// Otherwise every match counts as exactly one elapsed period.
	PeriodDays float64
}

// GlickoOption configures a Glicko engine.
type GlickoOption func(*Glicko)

// WithGlickoInitial sets the rating and deviation given to unseen entities.
func WithGlickoInitial(r, rd float64) GlickoOption {
	return func(g *Glicko) {
		g.InitialRating = r
		if rd > 0 {
			g.InitialRD = rd
		}
	}
}

// WithC sets the deviation growth constant.
func WithC(c float64) GlickoOption {
	return func(g *Glicko) {
		if c >= 0 {
			g.C = c
		}
	}
}

// WithRDCap sets the ceiling of the deviation.
func WithRDCap(rdCap float64) GlickoOption {
	return func(g *Glicko) {
		if rdCap > 0 {
			g.RDCap = rdCap
		}
	}
}

// WithPeriodDays measures inactivity in calendar time.
func WithPeriodDays(days float64) GlickoOption {
	return func(g *Glicko) {
		if days >= 0 {
			g.PeriodDays = days
		}
	}
}

// NewGlicko returns a Glicko engine with r=1500, RD=350, c=34 and a cap of 350
// unless overridden. The initial deviation never exceeds the cap.
func NewGlicko(opts ...GlickoOption) *Glicko {
	g := &Glicko{
		InitialRating: DefaultGlickoRating,
		InitialRD:     DefaultGlickoRD,
		C:             DefaultGlickoC,
		RDCap:         DefaultGlickoRDCap,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.InitialRD = math.Min(g.InitialRD, g.RDCap)
	return g
}

// Initial returns the rating of an unseen entity.
func (g *Glicko) Initial() GlickoRating {
	return GlickoRating{R: g.InitialRating, RD: g.InitialRD}
}

// Periods returns the number of rating periods between two matches.
func (g *Glicko) Periods(last, now time.Time) float64 {
	if g.PeriodDays <= 0 || last.IsZero() {
		return 1
	}
	days := now.Sub(last).Hours() / 24
	if days <= 0 {
		return 0
	}
	return days / g.PeriodDays
}

// Grow applies deviation growth for t idle periods. Entities that have never
// been rated keep their initial deviation.
func (g *Glicko) Grow(rd float64, rated int, t float64) float64 {
	if rated == 0 {
		return rd
	}
	return math.Min(math.Sqrt(rd*rd+g.C*g.C*t), g.RDCap)
}

func glickoG(rd float64) float64 {
	return 1 / math.Sqrt(1+3*glickoQ*glickoQ*rd*rd/(math.Pi*math.Pi))
}

// Expected is the probability that self beats opp, discounted by the
// opponent's deviation.
func (g *Glicko) Expected(self, opp GlickoRating) float64 {
	return 1 / (1 + math.Pow(10, glickoG(opp.RD)*(self.R-opp.R)/-400))
}

// Update rates self after one match against opp. Both arguments are pre-match
// values; rated is the number of rated matches self already has and t the
// idle periods since the last one. score must be 1 for a win or 0 for a loss.
func (g *Glicko) Update(self, opp GlickoRating, rated int, t, score float64) (GlickoRating, error) {
	if score != 0 && score != 1 {
		return self, ErrNonBinaryOutcome
	}
	rd := g.Grow(self.RD, rated, t)
	gOpp := glickoG(opp.RD)
	e := g.Expected(self, opp)
	d2 := 1 / (glickoQ * glickoQ * gOpp * gOpp * e * (1 - e))
	precision := 1/(rd*rd) + 1/d2

	return GlickoRating{
		R:  self.R + glickoQ/precision*gOpp*(score-e),
		RD: math.Sqrt(1 / precision),
	}, nil
}
