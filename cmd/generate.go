package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/prefight/internal/testmatches"
)

var (
	genCfg = testmatches.DefaultConfig()
	genOut string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic chronological match history as JSON lines",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.IntVar(&genCfg.Matches, "matches", genCfg.Matches, "number of matches")
	f.IntVar(&genCfg.Entities, "entities", genCfg.Entities, "number of distinct fighters")
	f.Uint64Var(&genCfg.Seed, "seed", genCfg.Seed, "random seed; equal seeds give equal histories")
	f.Float64Var(&genCfg.UnknownRate, "unknown-rate", genCfg.UnknownRate, "probability that a statistic is missing")
	f.Float64Var(&genCfg.DrawRate, "draw-rate", genCfg.DrawRate, "probability of a draw")
	f.StringVarP(&genOut, "out", "o", "", "output file (default stdout)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	records, err := testmatches.Generate(cmd.Context(), genCfg)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), genOut, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		for i := range records {
			if err := enc.Encode(&records[i]); err != nil {
				return fmt.Errorf("write record %d: %w", i, err)
			}
		}
		return nil
	})
}
