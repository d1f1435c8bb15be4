package features

import (
	"time"

	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
)

// Row is the pre-match feature vector of one record. A, B and Diff are
// aligned with Result.Schema and Diff[i] = A[i] - B[i]. Outcome is the label
// of the current record and never feeds any feature.
type Row struct {
	Index       int           `json:"index"`
	MatchID     string        `json:"match_id"`
	Date        time.Time     `json:"date"`
	EntityA     string        `json:"entity_a"`
	EntityB     string        `json:"entity_b"`
	WeightClass string        `json:"weight_class,omitempty"`
	TitleBout   types.Value   `json:"title_bout"`
	WomensBout  bool          `json:"womens_bout"`
	Outcome     model.Outcome `json:"outcome"`
	A           []types.Value `json:"a"`
	B           []types.Value `json:"b"`
	Diff        []types.Value `json:"diff"`
}

// Result is the output of one run, index-aligned with the input.
type Result struct {
	Schema   []string         `json:"schema"`
	Rows     []Row            `json:"rows"`
	Entities []entity.Summary `json:"entities"`
	Mode     string           `json:"mode"`
	Passes   int              `json:"passes"`
}

// Column returns the position of name in the schema.
func (r *Result) Column(name string) (int, bool) {
	for i, c := range r.Schema {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Get returns the slot A, slot B and difference values of a column in a row.
func (r *Result) Get(row int, name string) (a, b, diff types.Value, ok bool) {
	i, ok := r.Column(name)
	if !ok || row < 0 || row >= len(r.Rows) {
		return a, b, diff, false
	}
	rw := &r.Rows[row]
	return rw.A[i], rw.B[i], rw.Diff[i], true
}

// Entity returns the end-of-run summary of id.
func (r *Result) Entity(id string) (entity.Summary, bool) {
	for _, s := range r.Entities {
		if s.ID == id {
			return s, true
		}
	}
	return entity.Summary{}, false
}
