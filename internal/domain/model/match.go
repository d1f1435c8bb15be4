// Package model contains the match records consumed by the feature engine.
package model

import (
	"strings"
	"time"

	"github.com/okian/prefight/internal/domain/types"
)

// Slot is the presentational position of a participant in a record.
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

// Other returns the opposite slot.
func (s Slot) Other() Slot { return 1 - s }

func (s Slot) String() string {
	if s == SlotA {
		return "a"
	}
	return "b"
}

// Outcome is the result of a match from slot A's point of view.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeA
	OutcomeB
	OutcomeDraw
	OutcomeNoContest
)

var outcomeNames = map[Outcome]string{
	OutcomeUnknown:   "unknown",
	OutcomeA:         "a",
	OutcomeB:         "b",
	OutcomeDraw:      "draw",
	OutcomeNoContest: "no_contest",
}

func (o Outcome) String() string { return outcomeNames[o] }

// Decisive reports whether one side won.
func (o Outcome) Decisive() bool { return o == OutcomeA || o == OutcomeB }

// ParseOutcome maps the common textual encodings of a result. Unrecognised
// input is OutcomeUnknown, which every subsystem treats as non-decisive.
func ParseOutcome(s string) Outcome {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "red", "1", "win_a", "w":
		return OutcomeA
	case "b", "blue", "0", "win_b", "l":
		return OutcomeB
	case "draw", "d":
		return OutcomeDraw
	case "nc", "no_contest", "no contest", "no-contest":
		return OutcomeNoContest
	default:
		return OutcomeUnknown
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText never fails; unrecognised text becomes OutcomeUnknown.
func (o *Outcome) UnmarshalText(b []byte) error {
	*o = ParseOutcome(string(b))
	return nil
}

// Method is the coarse category of how a match ended.
type Method int

const (
	MethodNone Method = iota
	MethodDecision
	MethodKnockout
	MethodSubmission
	MethodOther
)

// Methods lists the categories that can win a match, in column order.
var Methods = []Method{MethodDecision, MethodKnockout, MethodSubmission, MethodOther}

var methodNames = map[Method]string{
	MethodNone:       "none",
	MethodDecision:   "decision",
	MethodKnockout:   "ko",
	MethodSubmission: "sub",
	MethodOther:      "other",
}

func (m Method) String() string { return methodNames[m] }

// ClassifyMethod buckets a free-text method such as "KO/TKO" or "U-DEC".
// Empty text means the method is not known.
func ClassifyMethod(s string) Method {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case u == "":
		return MethodNone
	case strings.Contains(u, "KO"):
		return MethodKnockout
	case strings.Contains(u, "DEC"):
		return MethodDecision
	case strings.Contains(u, "SUB"):
		return MethodSubmission
	default:
		return MethodOther
	}
}

// Strikes is a landed/attempted pair.
type Strikes struct {
	Landed    types.Value `json:"landed"`
	Attempted types.Value `json:"attempted"`
}

// SlotStats holds the raw per-participant statistics of one match.
type SlotStats struct {
	Knockdowns       types.Value `json:"knockdowns"`
	SigStrikes       Strikes     `json:"sig_strikes"`
	TotalStrikes     Strikes     `json:"total_strikes"`
	Head             Strikes     `json:"head"`
	Body             Strikes     `json:"body"`
	Leg              Strikes     `json:"leg"`
	Distance         Strikes     `json:"distance"`
	Clinch           Strikes     `json:"clinch"`
	Ground           Strikes     `json:"ground"`
	Takedowns        Strikes     `json:"takedowns"`
	ControlMinutes   types.Value `json:"control_minutes"`
	SubAttempts      types.Value `json:"sub_attempts"`
	Reversals        types.Value `json:"reversals"`
	PerformanceBonus types.Value `json:"performance_bonus"`
	FightOfTheNight  types.Value `json:"fight_of_the_night"`
}

// Profile holds participant attributes known before the match.
type Profile struct {
	HeightIn  types.Value `json:"height_in"`
	ReachIn   types.Value `json:"reach_in"`
	BirthDate time.Time   `json:"birth_date"`
}

// Corner is one participant of a match.
type Corner struct {
	Entity  string    `json:"entity"`
	Stats   SlotStats `json:"stats"`
	Profile Profile   `json:"profile"`
}

// MatchRecord is one head-to-head match. Records are immutable once produced.
type MatchRecord struct {
	ID           string      `json:"id"`
	Date         time.Time   `json:"date"`
	A            Corner      `json:"a"`
	B            Corner      `json:"b"`
	Outcome      Outcome     `json:"outcome"`
	Method       string      `json:"method"`
	FightMinutes types.Value `json:"fight_minutes"`
	WeightClass  string      `json:"weight_class"`
	TitleBout    types.Value `json:"title_bout"`
	Location     string      `json:"location"`
}

// Corner returns the participant in slot s.
func (r *MatchRecord) Corner(s Slot) *Corner {
	if s == SlotA {
		return &r.A
	}
	return &r.B
}

// Opponent returns the participant facing slot s.
func (r *MatchRecord) Opponent(s Slot) *Corner { return r.Corner(s.Other()) }

// Winner returns the winning slot for decisive outcomes.
func (r *MatchRecord) Winner() (Slot, bool) {
	switch r.Outcome {
	case OutcomeA:
		return SlotA, true
	case OutcomeB:
		return SlotB, true
	default:
		return 0, false
	}
}

// Result returns 1 when slot s won and 0 when it lost. Non-decisive outcomes
// report ok=false.
func (r *MatchRecord) Result(s Slot) (score float64, ok bool) {
	w, ok := r.Winner()
	if !ok {
		return 0, false
	}
	if w == s {
		return 1, true
	}
	return 0, true
}

// MethodCategory classifies the record's method text.
func (r *MatchRecord) MethodCategory() Method { return ClassifyMethod(r.Method) }

// WomensBout reports whether the weight class is a women's division.
func (r *MatchRecord) WomensBout() bool {
	return strings.Contains(strings.ToLower(r.WeightClass), "women")
}
