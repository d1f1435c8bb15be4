// Package testmatches generates deterministic synthetic match sequences for
// tests, benchmarks and the generate command.
package testmatches

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
)

// Generation ranges.
const (
	decisionMinutes   = 15.0
	roundMinutes      = 5.0
	maxRounds         = 3
	skillSpread       = 250.0
	sigPerMinuteMax   = 6.0
	accuracyMin       = 0.3
	accuracyRange     = 0.35
	tdAttemptsMax     = 6
	controlShare      = 0.4
	matchesPerDay     = 4
	birthYearsMin     = 21
	birthYearsRange   = 15
	heightMin         = 62
	heightRange       = 16
	reachOverHeightLo = -2
	reachOverHeightHi = 6
)

var methods = []string{"KO/TKO", "U-DEC", "S-DEC", "SUB", "TKO - Doctor's Stoppage", "M-DEC", "DQ"} //nolint:gochecknoglobals // fixed vocabulary

// ErrInvalidConfig is returned for non-positive sizes.
var ErrInvalidConfig = errors.New("testmatches: invalid config")

// Config controls the generated sequence.
type Config struct {
	Matches     int
	Entities    int
	Seed        uint64
	Start       time.Time
	UnknownRate float64 // probability that any single statistic is unknown
	DrawRate    float64
	NoContest   float64
}

// DefaultConfig returns a small, fully specified configuration.
func DefaultConfig() Config {
	return Config{
		Matches:     200,
		Entities:    24,
		Seed:        42,
		Start:       time.Date(2015, 1, 3, 0, 0, 0, 0, time.UTC),
		UnknownRate: 0.05,
		DrawRate:    0.03,
		NoContest:   0.01,
	}
}

type fighter struct {
	id      string
	skill   float64
	profile model.Profile
}

// Generate returns cfg.Matches records in chronological order. The same
// config always yields the same records, ids included.
func Generate(ctx context.Context, cfg Config) ([]model.MatchRecord, error) {
	if cfg.Matches < 0 || cfg.Entities < 2 {
		return nil, fmt.Errorf("%w: matches=%d entities=%d", ErrInvalidConfig, cfg.Matches, cfg.Entities)
	}
	if cfg.Start.IsZero() {
		cfg.Start = DefaultConfig().Start
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	ns := uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "prefight/%d", cfg.Seed))

	roster := make([]fighter, cfg.Entities)
	for i := range roster {
		height := float64(heightMin + rng.IntN(heightRange))
		roster[i] = fighter{
			id:    fmt.Sprintf("fighter-%03d", i),
			skill: rng.NormFloat64() * skillSpread,
			profile: model.Profile{
				HeightIn:  types.Known(height),
				ReachIn:   types.Known(height + float64(reachOverHeightLo+rng.IntN(reachOverHeightHi-reachOverHeightLo))),
				BirthDate: cfg.Start.AddDate(-(birthYearsMin + rng.IntN(birthYearsRange)), -rng.IntN(12), -rng.IntN(28)),
			},
		}
	}

	g := &gen{rng: rng, unknown: cfg.UnknownRate}
	out := make([]model.MatchRecord, cfg.Matches)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		ai := rng.IntN(cfg.Entities)
		bi := rng.IntN(cfg.Entities - 1)
		if bi >= ai {
			bi++
		}
		out[i] = g.match(
			uuid.NewSHA1(ns, fmt.Appendf(nil, "%d", i)).String(),
			cfg.Start.AddDate(0, 0, i/matchesPerDay*7),
			roster[ai], roster[bi], cfg,
		)
	}
	return out, nil
}

type gen struct {
	rng     *rand.Rand
	unknown float64
}

func (g *gen) val(x float64) types.Value {
	if g.rng.Float64() < g.unknown {
		return types.Unknown()
	}
	return types.Known(x)
}

func (g *gen) match(id string, date time.Time, a, b fighter, cfg Config) model.MatchRecord {
	rec := model.MatchRecord{
		ID:          id,
		Date:        date,
		A:           model.Corner{Entity: a.id, Profile: a.profile},
		B:           model.Corner{Entity: b.id, Profile: b.profile},
		WeightClass: "Lightweight",
		TitleBout:   types.Bool(g.rng.IntN(20) == 0),
		Location:    "Las Vegas, Nevada, USA",
	}

	roll := g.rng.Float64()
	pA := 1 / (1 + math.Pow(10, -(a.skill-b.skill)/400))
	switch {
	case roll < cfg.NoContest:
		rec.Outcome = model.OutcomeNoContest
		rec.Method = "Overturned"
	case roll < cfg.NoContest+cfg.DrawRate:
		rec.Outcome = model.OutcomeDraw
		rec.Method = "S-DEC"
	case g.rng.Float64() < pA:
		rec.Outcome = model.OutcomeA
	default:
		rec.Outcome = model.OutcomeB
	}
	if rec.Method == "" {
		rec.Method = methods[g.rng.IntN(len(methods))]
	}

	minutes := decisionMinutes
	if model.ClassifyMethod(rec.Method) != model.MethodDecision {
		minutes = roundMinutes*float64(g.rng.IntN(maxRounds)) + g.rng.Float64()*roundMinutes
	}
	rec.FightMinutes = g.val(minutes)

	winner, _ := rec.Winner()
	for _, s := range []model.Slot{model.SlotA, model.SlotB} {
		rec.Corner(s).Stats = g.stats(minutes, rec.Outcome.Decisive() && winner == s, model.ClassifyMethod(rec.Method))
	}
	return rec
}

func (g *gen) strikes(attempted float64) model.Strikes {
	landed := math.Round(attempted * (accuracyMin + g.rng.Float64()*accuracyRange))
	return model.Strikes{Landed: g.val(landed), Attempted: g.val(attempted)}
}

func (g *gen) stats(minutes float64, won bool, method model.Method) model.SlotStats {
	sigAtt := math.Round(minutes * g.rng.Float64() * sigPerMinuteMax)
	sig := g.strikes(sigAtt)
	tdAtt := float64(g.rng.IntN(tdAttemptsMax))
	kd := 0.0
	if won && method == model.MethodKnockout {
		kd = float64(1 + g.rng.IntN(2))
	}
	sub := float64(g.rng.IntN(2))
	if won && method == model.MethodSubmission {
		sub++
	}
	bonus := 0.0
	if won && g.rng.IntN(6) == 0 {
		bonus = 1
	}
	return model.SlotStats{
		Knockdowns:       g.val(kd),
		SigStrikes:       sig,
		TotalStrikes:     g.strikes(sigAtt * 1.4),
		Head:             g.strikes(sigAtt * 0.6),
		Body:             g.strikes(sigAtt * 0.25),
		Leg:              g.strikes(sigAtt * 0.15),
		Distance:         g.strikes(sigAtt * 0.7),
		Clinch:           g.strikes(sigAtt * 0.15),
		Ground:           g.strikes(sigAtt * 0.15),
		Takedowns:        g.strikes(tdAtt),
		ControlMinutes:   g.val(math.Round(minutes*g.rng.Float64()*controlShare*100) / 100),
		SubAttempts:      g.val(sub),
		Reversals:        g.val(float64(g.rng.IntN(2))),
		PerformanceBonus: g.val(bonus),
		FightOfTheNight:  g.val(0),
	}
}
