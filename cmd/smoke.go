package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/prefight/internal/config"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
	"github.com/okian/prefight/internal/smoke"
	"github.com/okian/prefight/pkg/logger"
)

var smokeCfg = smoke.DefaultConfig()

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Submit generated matches to a running server and verify its leaderboard",
	Long: `Generates a match history, posts it to /v1/features and compares
/v1/ratings with a local build of the same history under the local config.
Both sides must share rating parameters for the check to pass.`,
	Args: cobra.NoArgs,
	RunE: runSmoke,
}

func init() {
	f := smokeCmd.Flags()
	f.StringVar(&smokeCfg.BaseURL, "url", smokeCfg.BaseURL, "base URL of the server")
	f.IntVar(&smokeCfg.TopN, "top", smokeCfg.TopN, "leaderboard entries to compare")
	f.DurationVar(&smokeCfg.Timeout, "timeout", smokeCfg.Timeout, "HTTP request timeout")
	f.IntVar(&smokeCfg.Matches.Matches, "matches", smokeCfg.Matches.Matches, "number of matches")
	f.IntVar(&smokeCfg.Matches.Entities, "entities", smokeCfg.Matches.Entities, "number of distinct fighters")
	f.Uint64Var(&smokeCfg.Matches.Seed, "seed", smokeCfg.Matches.Seed, "random seed")
}

func runSmoke(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}
	cfg.DatabasePath = ""

	rep, err := smoke.Run(ctx, smokeCfg, localExpect(cfg, log), log)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok: run %s, %d records, %d columns, top %d verified in %s\n",
		rep.RunID, rep.Records, rep.Columns, len(rep.Top), rep.Took)
	return nil
}

func localExpect(cfg *config.Config, log logger.Logger) smoke.Expect {
	return func(ctx context.Context, records []model.MatchRecord, n int) ([]types.Entry, error) {
		svc, closeSvc, err := newService(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		defer closeSvc(ctx)
		if _, err := svc.Build(ctx, records, "smoke"); err != nil {
			return nil, err
		}
		return svc.TopN(ctx, n)
	}
}
