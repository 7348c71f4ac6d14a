// Command ingest is the transfer-market ingestion CLI.
//
// Usage:
//
//	ingest seed all
//	ingest seed leagues
//	ingest seed transfers --csv data/transfers.csv
//	ingest seed transfers --dry-run
//	ingest migrate up
//	ingest migrate down --steps 1
//	ingest migrate version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-transfers/internal/config"
	"github.com/albapepper/scoracle-transfers/internal/db"
	"github.com/albapepper/scoracle-transfers/internal/identity"
	"github.com/albapepper/scoracle-transfers/internal/logging"
	"github.com/albapepper/scoracle-transfers/internal/maintenance"
	"github.com/albapepper/scoracle-transfers/internal/metrics"
	"github.com/albapepper/scoracle-transfers/internal/provider/apifootball"
	"github.com/albapepper/scoracle-transfers/internal/seed"
	"github.com/albapepper/scoracle-transfers/internal/store"
	"github.com/albapepper/scoracle-transfers/internal/store/memory"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "ingest",
		Short:        "Transfer-market ingestion CLI",
		SilenceUsage: true,
	}

	root.AddCommand(seedCmd())
	root.AddCommand(migrateCmd())

	err := root.Execute()
	_ = logging.Default().Sync()
	if err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed leagues, clubs and transfers",
	}
	cmd.AddCommand(seedAllCmd())
	cmd.AddCommand(seedLeaguesCmd())
	cmd.AddCommand(seedTransfersCmd())
	return cmd
}

func seedAllCmd() *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Seed leagues and clubs from API-Football, then ingest the transfers CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(false, func(ctx context.Context, r *seed.Runner) error {
				if csvPath != "" {
					r.CSVPath = csvPath
				}
				result, err := r.SeedAll(ctx)
				if err != nil {
					return err
				}
				logErrors(r.Logger, result.Transfers.Errors)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Transfers CSV path (default $TRANSFERS_CSV_PATH)")
	return cmd
}

func seedLeaguesCmd() *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "leagues",
		Short: "Seed leagues and clubs from API-Football",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(false, func(ctx context.Context, r *seed.Runner) error {
				if cmd.Flags().Changed("season") {
					r.Leagues.Season = season
				}
				start := time.Now()
				result, err := r.SeedLeagues(ctx)
				if err != nil {
					return err
				}
				r.Logger.Info("League seed finished",
					"duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season year; 0 uses each league's current season")
	return cmd
}

func seedTransfersCmd() *cobra.Command {
	var (
		csvPath string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Ingest the transfers CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(dryRun, func(ctx context.Context, r *seed.Runner) error {
				if csvPath != "" {
					r.CSVPath = csvPath
				}
				start := time.Now()
				result, err := r.IngestTransfers(ctx)
				if err != nil {
					return err
				}
				logErrors(r.Logger, result.Errors)
				r.Logger.Info("Transfer ingest finished",
					"duration", time.Since(start).Round(time.Second),
					"dry_run", dryRun, "summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Transfers CSV path (default $TRANSFERS_CSV_PATH)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and validate against an in-memory store; no database writes")
	return cmd
}

func logErrors(logger *logging.Logger, errs []string) {
	for _, e := range errs {
		logger.Debug("skipped row", "error", e)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the embedded schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(func(m *db.Migrator, logger *logging.Logger) error {
				if err := m.Up(); err != nil {
					return err
				}
				logger.Info("Migrations applied")
				return nil
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(func(m *db.Migrator, logger *logging.Logger) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				logger.Info("Migrations rolled back", "steps", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(func(m *db.Migrator, logger *logging.Logger) error {
				v, dirty, ok, err := m.Version()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// setup loads config and installs the process logger.
func setup(requireDatabase bool) (*config.Config, *logging.Logger, error) {
	load := config.Load
	if !requireDatabase {
		load = config.LoadWithoutDatabase
	}
	cfg, err := load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
	logging.SetDefault(logger)
	return cfg, logger, nil
}

// runSeed handles config loading, store selection, the run deadline and
// metrics output. A dry run uses the in-memory store and never connects.
func runSeed(dryRun bool, fn func(ctx context.Context, r *seed.Runner) error) error {
	cfg, logger, err := setup(!dryRun)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	ids, err := identity.NewGenerator(identity.Scheme(cfg.TransferIDScheme))
	if err != nil {
		return err
	}

	r := &seed.Runner{
		Leagues: seed.LeagueOptions{
			LeagueIDs:       cfg.SeedLeagueIDs,
			Season:          cfg.SeedSeason,
			FallbackCountry: cfg.FallbackCountryCode,
		},
		CSVPath:         cfg.TransfersCSVPath,
		IDs:             ids,
		FallbackCountry: cfg.FallbackCountryCode,
		Metrics:         metrics.NewRegistry(),
		Logger:          logger,
	}
	if cfg.APIFootballKey != "" {
		r.Client = apifootball.NewClient(apifootball.ClientConfig{
			BaseURL:           cfg.APIFootballBaseURL,
			APIKey:            cfg.APIFootballKey,
			RequestsPerMinute: cfg.APIFootballRPM,
			MaxRetries:        cfg.APIFootballMaxRetries,
			Timeout:           cfg.APIFootballTimeout,
			Logger:            logger,
		})
	} else {
		logger.Warn("APIFOOTBALL_KEY is not set; the league phase will fail")
	}

	if dryRun {
		r.Store = memory.New()
		logger.Info("Dry run: using in-memory store")
	} else {
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		r.Store = store.NewPostgres(pool, cfg.DBCallTimeout)
		r.Refresh = maintenance.Refresher(pool, logger)
	}

	runErr := fn(ctx, r)
	if cfg.MetricsFile != "" && !dryRun {
		if err := r.Metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
	return runErr
}

// runMigrate opens the migrator against DATABASE_URL.
func runMigrate(fn func(m *db.Migrator, logger *logging.Logger) error) error {
	cfg, logger, err := setup(true)
	if err != nil {
		return err
	}
	m, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("Failed to close migrator", "error", err)
		}
	}()
	return fn(m, logger)
}
