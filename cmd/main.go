package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/prefight/internal/adapters/storage/featurestore"
	service "github.com/okian/prefight/internal/app"
	"github.com/okian/prefight/internal/config"
	"github.com/okian/prefight/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "prefight",
	Short: "Causal pre-match features and ratings for head-to-head fights",
	Long: `prefight turns a chronological history of fights into pre-match feature
vectors. Every value for a fight is computed only from fights before it.

Configuration is read from defaults, then the YAML file named by --config or
PREFIGHT_CONFIG, then PREFIGHT_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return os.Setenv(config.EnvFile, configPath)
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(ratingsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(smokeCmd)
}

// setup loads configuration and initialises logging. Command output goes to
// stdout, so logs go to stderr.
func setup(ctx context.Context) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(logger.WithWriter(os.Stderr), logger.WithJSON(cfg.LogFormat == "json")); err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}

// newService builds a started service from cfg. The returned close func
// stops the service, draining persistence, and closes the store.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, func(context.Context), error) {
	opts := append(service.ConfigOptions(cfg), service.WithLogger(log))

	var db *featurestore.DB
	if cfg.DatabasePath != "" {
		var err error
		db, err = featurestore.Open(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open feature store: %w", err)
		}
		opts = append(opts, service.WithFeatureStore(db))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, fmt.Errorf("start service: %w", err)
	}

	closeFn := func(ctx context.Context) {
		if err := svc.Stop(ctx); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
		if db != nil {
			if err := db.Close(); err != nil {
				log.Error(ctx, "feature store close failed", logger.Error(err))
			}
		}
	}
	return svc, closeFn, nil
}
