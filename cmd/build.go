package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/prefight/internal/adapters/export"
	service "github.com/okian/prefight/internal/app"
	"github.com/okian/prefight/internal/config"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/pkg/logger"
)

var (
	buildFormat   string
	buildOut      string
	buildDB       string
	buildParallel bool
)

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Build the pre-match feature matrix of a match history",
	Long: `Reads match records (a JSON array or JSON lines, oldest first) from file,
or stdin when file is "-" or omitted, and writes one feature row per record.

Example:
  prefight build history.jsonl --format csv --out features.csv
  prefight build history.json --db features.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildFormat, "format", "csv", "output format: csv or json")
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "output file (default stdout)")
	buildCmd.Flags().StringVar(&buildDB, "db", "", "store the run in this SQLite file (overrides database_path)")
	buildCmd.Flags().BoolVar(&buildParallel, "parallel", false, "run stage categories as concurrent passes")
}

func runBuild(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(buildFormat)
	if format != "csv" && format != "json" {
		return fmt.Errorf("unsupported format %q", buildFormat)
	}
	ctx := cmd.Context()
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}
	if buildDB != "" {
		cfg.DatabasePath = buildDB
	}
	if cmd.Flags().Changed("parallel") {
		cfg.ParallelCategories = buildParallel
	}

	svc, closeSvc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSvc(ctx)

	b, err := buildFrom(cmd, svc, args)
	if err != nil {
		return err
	}

	err = writeOutput(cmd.OutOrStdout(), buildOut, func(w io.Writer) error {
		return writeBuild(w, format, b)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	log.Info(ctx, "build written",
		logger.String("run_id", b.RunID),
		logger.Int("rows", len(b.Result.Rows)),
		logger.String("persist", b.Persist),
	)
	return nil
}

// buildFrom decodes the input named by args and runs one build.
func buildFrom(cmd *cobra.Command, svc *service.Service, args []string) (*service.Build, error) {
	records, err := readRecords(cmd, svc, args)
	if err != nil {
		return nil, err
	}
	source := "stdin"
	if len(args) == 1 && args[0] != "-" {
		source = args[0]
	}
	return svc.Build(cmd.Context(), records, source)
}

func readRecords(cmd *cobra.Command, svc *service.Service, args []string) ([]model.MatchRecord, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	records, _, err := svc.Decode(cmd.Context(), r)
	if err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return records, nil
}

func writeBuild(w io.Writer, format string, b *service.Build) error {
	if format == "csv" {
		return export.WriteCSV(w, b.Result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// writeOutput runs write against path, or against stdout when path is empty.
// A file is closed before returning so a failed flush is reported.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return write(f)
}

// metricFlag validates a --metric override.
func metricFlag(cfg *config.Config, metric string) error {
	if metric == "" {
		return nil
	}
	cfg.LeaderboardMetric = strings.ToLower(metric)
	return cfg.Validate()
}
