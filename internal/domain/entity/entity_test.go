package entity_test

import (
	"testing"

	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	Convey("Given an empty table with an init hook", t, func() {
		calls := 0
		tbl := entity.NewTable(entity.WithInit(func(st *entity.State) {
			calls++
			st.Elo = 1500
		}))

		Convey("When an entity is ensured twice", func() {
			first := tbl.Ensure("zed")
			second := tbl.Ensure("zed")

			Convey("Then it is created once and initialised once", func() {
				So(first, ShouldEqual, second)
				So(calls, ShouldEqual, 1)
				So(first.Elo, ShouldEqual, 1500)
				So(first.Debut(), ShouldBeTrue)
				So(tbl.Len(), ShouldEqual, 1)
			})
		})

		Convey("When several entities appear", func() {
			tbl.Ensure("zed")
			tbl.Ensure("amy")
			tbl.Ensure("kai")

			Convey("Then IDs are sorted and first-seen order is kept", func() {
				So(tbl.IDs(), ShouldResemble, []string{"amy", "kai", "zed"})
				So(tbl.FirstSeen(), ShouldResemble, []string{"zed", "amy", "kai"})
			})

			Convey("Then Get does not create", func() {
				_, ok := tbl.Get("nobody")
				So(ok, ShouldBeFalse)
				So(tbl.Len(), ShouldEqual, 3)
			})
		})
	})
}

func TestSeries(t *testing.T) {
	Convey("Given a series", t, func() {
		st := entity.NewTable().Ensure("amy")

		Convey("Lookup does not create a series", func() {
			_, ok := st.Lookup("kd")
			So(ok, ShouldBeFalse)
		})

		Convey("Append keeps raw history and sums only known parts", func() {
			sr := st.SeriesFor("kd")
			sr.Append(entity.Observation{Num: types.Known(2), Den: types.Known(10)})
			sr.Append(entity.Observation{Num: types.Unknown(), Den: types.Known(5)})
			sr.Append(entity.Observation{Num: types.Known(1)})

			So(len(sr.Obs), ShouldEqual, 3)
			So(sr.SumNum, ShouldEqual, 3)
			So(sr.KnownNum, ShouldEqual, 2)
			So(sr.SumDen, ShouldEqual, 15)
			So(sr.KnownDen, ShouldEqual, 2)
			So(sr.Pairs, ShouldEqual, 1)
			So(sr.PairNum, ShouldEqual, 2)
			So(sr.PairDen, ShouldEqual, 10)

			again, ok := st.Lookup("kd")
			So(ok, ShouldBeTrue)
			So(again, ShouldEqual, sr)
		})
	})
}

func TestSorted(t *testing.T) {
	Convey("Summaries sort by id", t, func() {
		out := entity.Sorted([]entity.Summary{{ID: "c"}, {ID: "a"}, {ID: "b"}})
		So(out[0].ID, ShouldEqual, "a")
		So(out[2].ID, ShouldEqual, "c")
	})
}
