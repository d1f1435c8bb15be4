package featurestore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prefight/internal/adapters/storage/featurestore"
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/features"
	"github.com/okian/prefight/internal/domain/types"
)

func openMemDB(t *testing.T) *featurestore.DB {
	t.Helper()
	db, err := featurestore.Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleResult() *features.Result {
	d1 := time.Date(2021, 3, 6, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2021, 4, 10, 0, 0, 0, 0, time.UTC)
	return &features.Result{
		Schema: []string{"elo", "win_streak"},
		Rows: []features.Row{
			{Index: 0, MatchID: "m1", Date: d1, EntityA: "a", EntityB: "b",
				A:    []types.Value{types.Known(1500), types.Unknown()},
				B:    []types.Value{types.Known(1500), types.Unknown()},
				Diff: []types.Value{types.Known(0), types.Unknown()}},
			{Index: 1, MatchID: "m2", Date: d2, EntityA: "a", EntityB: "c",
				A:    []types.Value{types.Known(1516), types.Known(1)},
				B:    []types.Value{types.Known(1500), types.Unknown()},
				Diff: []types.Value{types.Known(16), types.Unknown()}},
		},
		Entities: []entity.Summary{
			{ID: "a", Matches: 2, Wins: 2, Elo: types.Known(1530.5), Glicko: types.Known(1700),
				GlickoRD: types.Known(260), GlickoRated: 2, LastDate: d2},
			{ID: "b", Matches: 1, Losses: 1, Elo: types.Known(1484), LastDate: d1},
		},
		Mode: features.ModeSequential,
	}
}

func TestSaveAndRead(t *testing.T) {
	Convey("Given an in-memory feature store with one saved run", t, func() {
		ctx := context.Background()
		db := openMemDB(t)
		created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		run := featurestore.Run{ID: "run-1", CreatedAt: created, Mode: features.ModeSequential, Source: "fixture"}
		So(db.SaveRun(ctx, run, sampleResult()), ShouldBeNil)

		Convey("Runs lists it with its shape", func() {
			runs, err := db.Runs(ctx)
			So(err, ShouldBeNil)
			So(runs, ShouldHaveLength, 1)
			So(runs[0].ID, ShouldEqual, "run-1")
			So(runs[0].Records, ShouldEqual, 2)
			So(runs[0].Columns, ShouldEqual, 2)
			So(runs[0].CreatedAt.Equal(created), ShouldBeTrue)
			So(runs[0].Source, ShouldEqual, "fixture")
		})

		Convey("Columns come back in schema order", func() {
			cols, err := db.Columns(ctx, "run-1")
			So(err, ShouldBeNil)
			So(cols, ShouldResemble, []string{"elo", "win_streak"})
		})

		Convey("Values keep unknown as unknown", func() {
			vals, err := db.Values(ctx, "run-1", "win_streak")
			So(err, ShouldBeNil)
			So(vals, ShouldHaveLength, 2)
			So(vals[0].A.IsKnown(), ShouldBeFalse)
			So(vals[1].A, ShouldResemble, types.Known(1))
			So(vals[1].Diff.IsKnown(), ShouldBeFalse)
			So(vals[1].MatchID, ShouldEqual, "m2")
			So(vals[1].Date.Month(), ShouldEqual, time.April)
		})

		Convey("Entity summaries round-trip", func() {
			ents, err := db.Entities(ctx, "run-1")
			So(err, ShouldBeNil)
			So(ents, ShouldHaveLength, 2)
			So(ents[0].ID, ShouldEqual, "a")
			So(ents[0].Elo, ShouldResemble, types.Known(1530.5))
			So(ents[1].GlickoRD.IsKnown(), ShouldBeFalse)
		})

		Convey("Saving the same id again fails", func() {
			err := db.SaveRun(ctx, run, sampleResult())
			So(errors.Is(err, featurestore.ErrRunExists), ShouldBeTrue)
		})

		Convey("Deleting removes the run and its values", func() {
			So(db.DeleteRun(ctx, "run-1"), ShouldBeNil)
			_, err := db.Values(ctx, "run-1", "elo")
			So(errors.Is(err, featurestore.ErrRunNotFound), ShouldBeTrue)
			So(errors.Is(db.DeleteRun(ctx, "run-1"), featurestore.ErrRunNotFound), ShouldBeTrue)
		})
	})
}

func TestUnknownRun(t *testing.T) {
	Convey("Reads of an unknown run report ErrRunNotFound", t, func() {
		ctx := context.Background()
		db := openMemDB(t)

		_, err := db.Columns(ctx, "nope")
		So(errors.Is(err, featurestore.ErrRunNotFound), ShouldBeTrue)
		_, err = db.Entities(ctx, "nope")
		So(errors.Is(err, featurestore.ErrRunNotFound), ShouldBeTrue)

		runs, err := db.Runs(ctx)
		So(err, ShouldBeNil)
		So(runs, ShouldBeEmpty)
	})
}
