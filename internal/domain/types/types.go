// Package types contains small value types shared across the engine and its adapters.
package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is a float that may be unknown. The zero Value is unknown, which keeps
// "no history yet" distinct from a true zero.
type Value struct {
	v  float64
	ok bool
}

// Known wraps x. NaN and infinities are not representable and become unknown.
func Known(x float64) Value {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Value{}
	}
	return Value{v: x, ok: true}
}

// Unknown returns the unknown sentinel.
func Unknown() Value { return Value{} }

// IsKnown reports whether v carries a number.
func (v Value) IsKnown() bool { return v.ok }

// Float returns the number and whether it is known.
func (v Value) Float() (float64, bool) { return v.v, v.ok }

// Or returns the number, or def when unknown.
func (v Value) Or(def float64) float64 {
	if !v.ok {
		return def
	}
	return v.v
}

// Sub returns a - b, unknown when either side is unknown.
func Sub(a, b Value) Value {
	if !a.ok || !b.ok {
		return Value{}
	}
	return Known(a.v - b.v)
}

// Bool converts a flag to 1 or 0.
func Bool(b bool) Value {
	if b {
		return Known(1)
	}
	return Known(0)
}

func (v Value) String() string {
	if !v.ok {
		return "unknown"
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}

// MarshalJSON encodes unknown as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.v, 'g', -1, 64), nil
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else, null
// included, decodes to unknown without failing the surrounding document.
func (v *Value) UnmarshalJSON(data []byte) error {
	*v = Value{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil //nolint:nilerr // malformed field degrades to unknown
		}
		*v = Parse(s)
		return nil
	}
	if x, err := strconv.ParseFloat(string(data), 64); err == nil {
		*v = Known(x)
	}
	return nil
}

// Parse converts text to a Value. Empty, dashed and non-numeric inputs are unknown.
func Parse(s string) Value {
	s = strings.TrimSpace(s)
	if IsBlank(s) {
		return Value{}
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}
	}
	return Known(x)
}

// IsBlank reports whether s is one of the placeholders used for a missing cell.
func IsBlank(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "-", "--", "---", "null", "NULL", "NaN", "nan":
		return true
	}
	return false
}

// Entry is one ranked row of the ratings leaderboard.
type Entry struct {
	Rank      int     `json:"rank"`
	EntityID  string  `json:"entity_id"`
	Rating    float64 `json:"rating"`
	Deviation Value   `json:"deviation"`
	Matches   int     `json:"matches"`
}
