package smoke_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prefight/internal/adapters/http/api"
	service "github.com/okian/prefight/internal/app"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
	"github.com/okian/prefight/internal/smoke"
	"github.com/okian/prefight/pkg/logger"
)

func localExpect(ctx context.Context, records []model.MatchRecord, n int) ([]types.Entry, error) {
	svc := service.New(service.WithLogger(logger.Nop()))
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = svc.Stop(ctx) }()
	if _, err := svc.Build(ctx, records, "local"); err != nil {
		return nil, err
	}
	return svc.TopN(ctx, n)
}

func TestRun(t *testing.T) {
	Convey("Given a server backed by a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Nop()))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, svc.MaxLeaderboardLimit()).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := smoke.DefaultConfig()
		cfg.BaseURL = srv.URL
		cfg.TopN = 10
		cfg.Matches.Matches = 150
		cfg.Matches.Entities = 25

		Convey("When running the smoke check", func() {
			rep, err := smoke.Run(ctx, cfg, localExpect, nil)

			Convey("Then the served leaderboard matches the local build", func() {
				So(err, ShouldBeNil)
				So(rep.Records, ShouldEqual, 150)
				So(rep.Rows, ShouldEqual, 150)
				So(rep.Columns, ShouldBeGreaterThan, 0)
				So(rep.Top, ShouldHaveLength, 10)
				So(rep.RunID, ShouldNotBeEmpty)
			})
		})

		Convey("When the local expectation disagrees", func() {
			wrong := func(context.Context, []model.MatchRecord, int) ([]types.Entry, error) {
				return []types.Entry{{Rank: 1, EntityID: "nobody"}}, nil
			}
			_, err := smoke.Run(ctx, cfg, wrong, nil)

			Convey("Then the run fails with a mismatch", func() {
				So(errors.Is(err, smoke.ErrMismatch), ShouldBeTrue)
			})
		})
	})

	Convey("Given no server", t, func() {
		cfg := smoke.DefaultConfig()
		cfg.BaseURL = "http://127.0.0.1:1"
		cfg.Matches.Matches = 5

		Convey("Then the run fails", func() {
			_, err := smoke.Run(context.Background(), cfg, localExpect, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestVerifyLeaderboard(t *testing.T) {
	Convey("Given a reference leaderboard", t, func() {
		want := []types.Entry{
			{Rank: 1, EntityID: "a", Rating: 1600, Matches: 3},
			{Rank: 2, EntityID: "b", Rating: 1500, Matches: 2},
		}

		Convey("Identical entries verify", func() {
			So(smoke.VerifyLeaderboard(want, append([]types.Entry(nil), want...)), ShouldBeNil)
		})

		Convey("Length, identity and rating differences are mismatches", func() {
			So(errors.Is(smoke.VerifyLeaderboard(want, want[:1]), smoke.ErrMismatch), ShouldBeTrue)

			swapped := []types.Entry{want[1], want[0]}
			So(errors.Is(smoke.VerifyLeaderboard(want, swapped), smoke.ErrMismatch), ShouldBeTrue)

			off := append([]types.Entry(nil), want...)
			off[1].Rating = 1501
			So(errors.Is(smoke.VerifyLeaderboard(want, off), smoke.ErrMismatch), ShouldBeTrue)
		})
	})
}

func TestClientStatus(t *testing.T) {
	Convey("Given a server that rejects everything", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"code":"bad_request"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		c := smoke.NewClient(srv.URL+"/", smoke.DefaultTimeout)

		Convey("Then calls return ErrStatus", func() {
			_, err := c.TopN(context.Background(), 5)
			So(errors.Is(err, smoke.ErrStatus), ShouldBeTrue)
			_, err = c.PostFeatures(context.Background(), nil)
			So(errors.Is(err, smoke.ErrStatus), ShouldBeTrue)
		})
	})
}
