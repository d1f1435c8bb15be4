package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/okian/prefight/internal/domain/types"
)

var (
	ratingsLimit  int
	ratingsMetric string
)

var ratingsCmd = &cobra.Command{
	Use:   "ratings [file]",
	Short: "Print the rating leaderboard after a match history",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRatings,
}

func init() {
	ratingsCmd.Flags().IntVarP(&ratingsLimit, "limit", "n", 20, "number of entries")
	ratingsCmd.Flags().StringVar(&ratingsMetric, "metric", "", "rank by elo or glicko (overrides leaderboard_metric)")
}

func runRatings(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}
	if err := metricFlag(cfg, ratingsMetric); err != nil {
		return err
	}
	// The leaderboard is all that is printed; nothing is stored.
	cfg.DatabasePath = ""

	svc, closeSvc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSvc(ctx)

	if _, err := buildFrom(cmd, svc, args); err != nil {
		return err
	}
	entries, err := svc.TopN(ctx, ratingsLimit)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	printRatings(cmd.OutOrStdout(), cfg.LeaderboardMetric, entries)
	return nil
}

func printRatings(w io.Writer, metric string, entries []types.Entry) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
	table.Header("RANK", "ENTITY", strings.ToUpper(metric), "RD", "MATCHES")
	for _, e := range entries {
		rd := "-"
		if d, ok := e.Deviation.Float(); ok {
			rd = strconv.FormatFloat(d, 'f', 1, 64)
		}
		table.Append(
			strconv.Itoa(e.Rank),
			e.EntityID,
			strconv.FormatFloat(e.Rating, 'f', 1, 64),
			rd,
			strconv.Itoa(e.Matches),
		)
	}
	table.Render()
}
