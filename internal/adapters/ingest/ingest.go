// Package ingest decodes match records from JSON arrays or JSON lines.
//
// Decoding is lenient per field: a value that cannot be read becomes unknown
// and is counted, so one bad cell never rejects a record. Only input that is
// not JSON at all fails the decode.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
	"github.com/okian/prefight/pkg/metrics"
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{ //nolint:gochecknoglobals // read-only table
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
}

// Report summarises one decode.
type Report struct {
	Records int `json:"records"`
	// Unknown counts fields that were present but unreadable, keyed by field path.
	Unknown map[string]int `json:"unknown,omitempty"`
}

// UnknownTotal sums Unknown.
func (r Report) UnknownTotal() int {
	n := 0
	for _, c := range r.Unknown {
		n += c
	}
	return n
}

// Fields returns the Unknown keys in sorted order.
func (r Report) Fields() []string {
	out := make([]string, 0, len(r.Unknown))
	for k := range r.Unknown {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxRecords stops decoding with ErrTooManyRecords past n records.
func WithMaxRecords(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.max = n
		}
	}
}

// Decoder reads match records from a stream.
type Decoder struct {
	r      *bufio.Reader
	max    int
	report Report
}

// NewDecoder wraps r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{r: bufio.NewReader(r), report: Report{Unknown: map[string]int{}}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode is a convenience wrapper around NewDecoder and DecodeAll.
func Decode(ctx context.Context, r io.Reader, opts ...Option) ([]model.MatchRecord, Report, error) {
	d := NewDecoder(r, opts...)
	recs, err := d.DecodeAll(ctx)
	return recs, d.Report(), err
}

// Report returns the counts gathered so far.
func (d *Decoder) Report() Report { return d.report }

// DecodeAll reads every record. The input is a JSON array when its first
// non-space byte is '[' and a stream of JSON objects otherwise.
func (d *Decoder) DecodeAll(ctx context.Context) ([]model.MatchRecord, error) {
	first, err := d.peek()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	dec := json.NewDecoder(d.r)
	dec.UseNumber()
	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}
	}

	var out []model.MatchRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if first == '[' && !dec.More() {
			break
		}
		var w wireRecord
		if err := dec.Decode(&w); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrMalformedInput, len(out), err)
		}
		if d.max > 0 && len(out) >= d.max {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyRecords, d.max)
		}
		out = append(out, d.convert(&w))
	}
	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}
	}
	d.report.Records = len(out)
	return out, nil
}

func (d *Decoder) peek() (byte, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, d.r.UnreadByte()
	}
}

func (d *Decoder) unknown(field string) {
	d.report.Unknown[field]++
	metrics.RecordUnknownField(field)
}

// wire shapes accept loosely typed input.
type wireRecord struct {
	ID           text            `json:"id"`
	Date         text            `json:"date"`
	A            wireCorner      `json:"a"`
	B            wireCorner      `json:"b"`
	Outcome      text            `json:"outcome"`
	Method       text            `json:"method"`
	FightMinutes json.RawMessage `json:"fight_minutes"`
	WeightClass  text            `json:"weight_class"`
	TitleBout    json.RawMessage `json:"title_bout"`
	Location     text            `json:"location"`
}

type wireCorner struct {
	Entity  text            `json:"entity"`
	Stats   json.RawMessage `json:"stats"`
	Profile struct {
		HeightIn  json.RawMessage `json:"height_in"`
		ReachIn   json.RawMessage `json:"reach_in"`
		BirthDate text            `json:"birth_date"`
	} `json:"profile"`
}

// text accepts a JSON string, number or bool as its literal text.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = ""
		return nil
	}
	if uq, err := strconv.Unquote(s); err == nil {
		s = uq
	}
	*t = text(strings.TrimSpace(s))
	return nil
}

func (d *Decoder) convert(w *wireRecord) model.MatchRecord {
	rec := model.MatchRecord{
		ID:           string(w.ID),
		Date:         d.date("date", w.Date),
		Outcome:      model.ParseOutcome(string(w.Outcome)),
		Method:       string(w.Method),
		FightMinutes: d.value("fight_minutes", w.FightMinutes),
		WeightClass:  string(w.WeightClass),
		TitleBout:    d.value("title_bout", w.TitleBout),
		Location:     string(w.Location),
	}
	if w.Outcome != "" && rec.Outcome == model.OutcomeUnknown {
		d.unknown("outcome")
	}
	d.corner(&rec.A, &w.A)
	d.corner(&rec.B, &w.B)
	return rec
}

func (d *Decoder) corner(dst *model.Corner, w *wireCorner) {
	dst.Entity = string(w.Entity)
	dst.Profile.HeightIn = d.value("profile.height_in", w.Profile.HeightIn)
	dst.Profile.ReachIn = d.value("profile.reach_in", w.Profile.ReachIn)
	dst.Profile.BirthDate = d.date("profile.birth_date", w.Profile.BirthDate)

	if len(w.Stats) == 0 || string(w.Stats) == "null" {
		return
	}
	// Value never fails to decode, so this only errors on a non-object.
	if err := json.Unmarshal(w.Stats, &dst.Stats); err != nil {
		d.unknown("stats")
		return
	}
	var raw any
	if err := json.Unmarshal(w.Stats, &raw); err == nil {
		d.countLeaves("stats", raw)
	}
}

// countLeaves reports leaves that are neither null nor numeric.
func (d *Decoder) countLeaves(path string, v any) {
	switch x := v.(type) {
	case nil, float64:
	case map[string]any:
		for k, c := range x {
			d.countLeaves(path+"."+k, c)
		}
	case string:
		if !types.Parse(x).IsKnown() && !types.IsBlank(x) {
			d.unknown(path)
		}
	default:
		d.unknown(path)
	}
}

func (d *Decoder) value(field string, raw json.RawMessage) types.Value {
	if len(raw) == 0 {
		return types.Unknown()
	}
	var v types.Value
	_ = v.UnmarshalJSON(raw)
	if !v.IsKnown() && string(raw) != "null" {
		var s string
		if json.Unmarshal(raw, &s) != nil || !types.IsBlank(s) {
			d.unknown(field)
		}
	}
	return v
}

func (d *Decoder) date(field string, s text) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, string(s)); err == nil {
			return t.UTC()
		}
	}
	d.unknown(field)
	return time.Time{}
}
