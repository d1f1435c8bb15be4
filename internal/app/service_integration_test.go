package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/prefight/internal/app"
	"github.com/okian/prefight/internal/adapters/storage/featurestore"
	"github.com/okian/prefight/internal/testmatches"
	"github.com/okian/prefight/pkg/logger"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service backed by an in-memory feature store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := featurestore.Open(":memory:")
		So(err, ShouldBeNil)
		defer func() { _ = db.Close() }()

		fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		svc := service.New(
			service.WithLogger(logger.Nop()),
			service.WithFeatureStore(db),
			service.WithPersistQueue(4, 1),
			service.WithParallelCategories(true),
			service.WithClock(func() time.Time { return fixed }),
		)
		So(svc.Start(ctx), ShouldBeNil)

		cfg := testmatches.DefaultConfig()
		cfg.Matches = 120
		records, err := testmatches.Generate(ctx, cfg)
		So(err, ShouldBeNil)

		Convey("When a generated history is built and the service stops", func() {
			b, err := svc.Build(ctx, records, "generated")
			So(err, ShouldBeNil)
			So(b.Persist, ShouldEqual, service.PersistQueued)
			ranked := svc.GetStats()["rankedEntities"]
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then the run is stored with every row", func() {
				runs, err := svc.Runs(ctx)
				So(err, ShouldBeNil)
				So(runs, ShouldHaveLength, 1)
				So(runs[0].ID, ShouldEqual, b.RunID)
				So(runs[0].Records, ShouldEqual, 120)
				So(runs[0].Source, ShouldEqual, "generated")
				So(runs[0].CreatedAt.Equal(fixed), ShouldBeTrue)
				So(runs[0].Mode, ShouldEqual, b.Result.Mode)
			})

			Convey("Then stored values match the in-memory result", func() {
				vals, err := svc.Values(ctx, b.RunID, "elo")
				So(err, ShouldBeNil)
				So(vals, ShouldHaveLength, 120)

				col, ok := b.Result.Column("elo")
				So(ok, ShouldBeTrue)
				for i, v := range vals {
					So(v.A, ShouldResemble, b.Result.Rows[i].A[col])
					So(v.Diff, ShouldResemble, b.Result.Rows[i].Diff[col])
				}
			})

			Convey("Then the leaderboard covers every entity", func() {
				So(ranked, ShouldEqual, len(b.Result.Entities))
			})
		})

		Convey("When two builds run back to back", func() {
			first, err := svc.Build(ctx, records[:60], "first")
			So(err, ShouldBeNil)
			second, err := svc.Build(ctx, records, "second")
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then both are stored under distinct ids", func() {
				runs, err := svc.Runs(ctx)
				So(err, ShouldBeNil)
				So(runs, ShouldHaveLength, 2)
				So(first.RunID, ShouldNotEqual, second.RunID)
			})

			Convey("Then the leaderboard reflects the latest build", func() {
				So(svc.GetStats()["builds"], ShouldEqual, int64(2))
			})
		})
	})
}
