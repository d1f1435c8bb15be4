package ingest_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prefight/internal/adapters/ingest"
	"github.com/okian/prefight/internal/domain/model"
)

const arrayInput = `[
  {"id": "m1", "date": "2020-01-04",
   "a": {"entity": "ali", "stats": {"knockdowns": 1, "sig_strikes": {"landed": 20, "attempted": 40}},
         "profile": {"height_in": 70, "reach_in": "72", "birth_date": "1990-05-01"}},
   "b": {"entity": "bo", "stats": {"sig_strikes": {"landed": "---", "attempted": 30}}},
   "outcome": "a", "method": "KO/TKO", "fight_minutes": 7.5, "weight_class": "Lightweight"},
  {"id": 2, "date": "2020-02-01T00:00:00Z",
   "a": {"entity": "bo"}, "b": {"entity": "cy"},
   "outcome": "draw", "method": "Decision - Split", "fight_minutes": "fifteen"}
]`

func TestDecodeArray(t *testing.T) {
	Convey("Given a JSON array of match records", t, func() {
		recs, rep, err := ingest.Decode(context.Background(), strings.NewReader(arrayInput))

		Convey("Then every record decodes", func() {
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 2)
			So(rep.Records, ShouldEqual, 2)
		})

		Convey("Then fields map onto the model", func() {
			r := recs[0]
			So(r.ID, ShouldEqual, "m1")
			So(r.Date, ShouldEqual, time.Date(2020, 1, 4, 0, 0, 0, 0, time.UTC))
			So(r.A.Entity, ShouldEqual, "ali")
			So(r.Outcome, ShouldEqual, model.OutcomeA)
			So(r.MethodCategory(), ShouldEqual, model.MethodKnockout)
			kd, _ := r.A.Stats.Knockdowns.Float()
			So(kd, ShouldEqual, 1)
			reach, _ := r.A.Profile.ReachIn.Float()
			So(reach, ShouldEqual, 72)
			So(r.A.Profile.BirthDate.Year(), ShouldEqual, 1990)

			So(recs[1].ID, ShouldEqual, "2")
			So(recs[1].Outcome, ShouldEqual, model.OutcomeDraw)
		})

		Convey("Then placeholders are unknown and not counted as malformed", func() {
			So(recs[0].B.Stats.SigStrikes.Landed.IsKnown(), ShouldBeFalse)
			So(rep.Unknown["stats.sig_strikes.landed"], ShouldEqual, 0)
		})

		Convey("Then unreadable values are unknown and counted", func() {
			So(recs[1].FightMinutes.IsKnown(), ShouldBeFalse)
			So(rep.Unknown["fight_minutes"], ShouldEqual, 1)
			So(rep.UnknownTotal(), ShouldEqual, 1)
			So(rep.Fields(), ShouldResemble, []string{"fight_minutes"})
		})
	})
}

func TestDecodeLines(t *testing.T) {
	Convey("Given JSON lines with malformed cells", t, func() {
		input := `{"id":"x1","date":"March 7, 2021","a":{"entity":"p"},"b":{"entity":"q"},"outcome":"maybe"}

{"id":"x2","date":"07/03/2021","a":{"entity":"q","stats":{"reversals":"lots"}},"b":{"entity":"p"},"outcome":"b"}
`
		recs, rep, err := ingest.Decode(context.Background(), strings.NewReader(input))

		So(err, ShouldBeNil)
		So(recs, ShouldHaveLength, 2)

		Convey("Long-form dates parse", func() {
			So(recs[0].Date, ShouldEqual, time.Date(2021, 3, 7, 0, 0, 0, 0, time.UTC))
		})

		Convey("Unrecognised values degrade to unknown", func() {
			So(recs[0].Outcome, ShouldEqual, model.OutcomeUnknown)
			So(recs[1].Date.IsZero(), ShouldBeTrue)
			So(recs[1].A.Stats.Reversals.IsKnown(), ShouldBeFalse)
			So(rep.Unknown["outcome"], ShouldEqual, 1)
			So(rep.Unknown["date"], ShouldEqual, 1)
			So(rep.Unknown["stats.reversals"], ShouldEqual, 1)
		})
	})
}

func TestDecodeErrors(t *testing.T) {
	Convey("Given inputs that cannot be decoded", t, func() {
		ctx := context.Background()

		Convey("Broken JSON is rejected", func() {
			_, _, err := ingest.Decode(ctx, strings.NewReader(`[{"id": "a"`))
			So(errors.Is(err, ingest.ErrMalformedInput), ShouldBeTrue)
		})

		Convey("Non-object stats are counted, not fatal", func() {
			recs, rep, err := ingest.Decode(ctx, strings.NewReader(`{"id":"a","a":{"entity":"x","stats":[1]},"b":{"entity":"y"}}`))
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
			So(rep.Unknown["stats"], ShouldEqual, 1)
		})

		Convey("Record limits are enforced", func() {
			in := `{"id":"a"}` + "\n" + `{"id":"b"}` + "\n" + `{"id":"c"}`
			_, _, err := ingest.Decode(ctx, strings.NewReader(in), ingest.WithMaxRecords(2))
			So(errors.Is(err, ingest.ErrTooManyRecords), ShouldBeTrue)
		})

		Convey("Empty input yields no records", func() {
			recs, _, err := ingest.Decode(ctx, strings.NewReader("  \n"))
			So(err, ShouldBeNil)
			So(recs, ShouldBeEmpty)
		})

		Convey("A cancelled context stops decoding", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, _, err := ingest.Decode(cctx, strings.NewReader(arrayInput))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
