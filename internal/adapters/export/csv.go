// Package export writes feature matrices as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/prefight/internal/domain/features"
	"github.com/okian/prefight/internal/domain/types"
)

// DateLayout is the date format of the date column.
const DateLayout = "2006-01-02"

var metaColumns = []string{ //nolint:gochecknoglobals // fixed header prefix
	"index", "match_id", "date", "entity_a", "entity_b",
	"weight_class", "title_bout", "womens_bout", "outcome",
}

// Header returns the CSV header for schema: the match columns followed by
// <col>_a, <col>_b and <col>_diff for every feature column.
func Header(schema []string) []string {
	h := make([]string, 0, len(metaColumns)+3*len(schema))
	h = append(h, metaColumns...)
	for _, c := range schema {
		h = append(h, c+"_a", c+"_b", c+"_diff")
	}
	return h
}

// Cell renders v. Unknown is the empty cell.
func Cell(v types.Value) string {
	x, ok := v.Float()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// WriteCSV writes res to w, one line per row in input order.
func WriteCSV(w io.Writer, res *features.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(res.Schema)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	line := make([]string, 0, len(metaColumns)+3*len(res.Schema))
	for i := range res.Rows {
		r := &res.Rows[i]
		line = append(line[:0],
			strconv.Itoa(r.Index),
			r.MatchID,
			r.Date.Format(DateLayout),
			r.EntityA,
			r.EntityB,
			r.WeightClass,
			Cell(r.TitleBout),
			strconv.FormatBool(r.WomensBout),
			r.Outcome.String(),
		)
		for c := range res.Schema {
			line = append(line, Cell(r.A[c]), Cell(r.B[c]), Cell(r.Diff[c]))
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
