package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-transfers/internal/identity"
	"github.com/albapepper/scoracle-transfers/internal/logging"
	"github.com/albapepper/scoracle-transfers/internal/metrics"
	"github.com/albapepper/scoracle-transfers/internal/provider"
	"github.com/albapepper/scoracle-transfers/internal/resolve"
	"github.com/albapepper/scoracle-transfers/internal/transfercsv"
)

// Store is everything a full run writes to.
type Store interface {
	resolve.Store
	EntityStore
	TransferStore
}

// Runner wires the phases of a run together. A Runner may be reused; every
// run gets its own entity resolver.
type Runner struct {
	Store           Store
	Client          provider.Client
	Leagues         LeagueOptions
	CSVPath         string
	IDs             *identity.Generator
	FallbackCountry string
	RowTimeout      time.Duration

	// Refresh runs after a successful CSV phase. Its failure is logged only.
	Refresh func(ctx context.Context) error

	Metrics *metrics.Registry
	Logger  *logging.Logger
}

func (r *Runner) logger() *logging.Logger {
	if r.Logger == nil {
		return logging.Default()
	}
	return r.Logger
}

// SeedAll runs the league/club phase and then the CSV phase. The transfers
// file is read before anything is written, so a missing or malformed file
// aborts the run with no writes.
func (r *Runner) SeedAll(ctx context.Context) (RunResult, error) {
	start := time.Now()
	result := RunResult{RunID: uuid.NewString()}
	logger := r.logger().With("run_id", result.RunID)

	rows, dropped, err := transfercsv.ReadFile(r.CSVPath)
	if err != nil {
		return result, err
	}
	logger.Info("Loaded transfers file", "path", r.CSVPath, "rows", len(rows), "dropped", dropped)

	if r.Client == nil {
		return result, fmt.Errorf("%w: no sports API client configured", ErrLeaguePhase)
	}
	logger.Info("Phase 1/2: Seeding leagues and clubs...")
	result.Leagues, err = SeedLeagues(ctx, r.Store, r.Client, r.Leagues, logger)
	r.recordLeagues(result.Leagues)
	if err != nil {
		logger.Error("League phase failed", "summary", result.Leagues.Summary(), "error", err)
		return result, err
	}
	logger.Info("Leagues done", "summary", result.Leagues.Summary())

	logger.Info("Phase 2/2: Ingesting transfers...")
	result.Transfers, err = r.ingest(ctx, rows, dropped, logger)
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	r.finish(ctx, result.Duration, logger)
	logger.Info("Run complete", "summary", result.Summary())
	return result, nil
}

// SeedLeagues runs only the league/club phase.
func (r *Runner) SeedLeagues(ctx context.Context) (LeagueResult, error) {
	if r.Client == nil {
		return LeagueResult{}, fmt.Errorf("%w: no sports API client configured", ErrLeaguePhase)
	}
	res, err := SeedLeagues(ctx, r.Store, r.Client, r.Leagues, r.logger())
	r.recordLeagues(res)
	return res, err
}

// IngestTransfers runs only the CSV phase, reading the configured file.
func (r *Runner) IngestTransfers(ctx context.Context) (TransferResult, error) {
	start := time.Now()
	logger := r.logger().With("run_id", uuid.NewString())

	rows, dropped, err := transfercsv.ReadFile(r.CSVPath)
	if err != nil {
		return TransferResult{}, err
	}
	res, err := r.ingest(ctx, rows, dropped, logger)
	if err != nil {
		return res, err
	}
	r.finish(ctx, time.Since(start), logger)
	return res, nil
}

func (r *Runner) ingest(ctx context.Context, rows []transfercsv.Row, dropped int, logger *logging.Logger) (TransferResult, error) {
	in := NewIngester(IngesterConfig{
		Store:           r.Store,
		Resolver:        resolve.New(r.Store, r.FallbackCountry, logger),
		IDs:             r.IDs,
		FallbackCountry: r.FallbackCountry,
		RowTimeout:      r.RowTimeout,
		Logger:          logger,
	})
	res, err := in.IngestTransfers(ctx, rows, dropped)
	r.recordTransfers(res)

	logger.Info("Transfers done", "summary", res.Summary(),
		"resolver_hits", res.Resolver.Hits, "resolver_created", res.Resolver.Created,
		"resolver_failures", res.Resolver.Failures)
	if res.Rows > 0 && res.Upserted == 0 {
		logger.Warn("No transfer rows were upserted", "skipped", res.Skipped)
	}
	return res, err
}

func (r *Runner) finish(ctx context.Context, elapsed time.Duration, logger *logging.Logger) {
	if r.Refresh != nil {
		if err := r.Refresh(ctx); err != nil {
			logger.Warn("Post-ingest refresh failed", "error", err)
		}
	}
	if r.Metrics != nil {
		r.Metrics.RunDurationSec.Set(elapsed.Seconds())
		r.Metrics.LastSuccessUnix.SetToCurrentTime()
	}
}

func (r *Runner) recordLeagues(res LeagueResult) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.LeaguesUpserted.Add(float64(res.LeaguesUpserted))
	r.Metrics.ClubsUpserted.Add(float64(res.ClubsUpserted))
}

func (r *Runner) recordTransfers(res TransferResult) {
	if r.Metrics == nil {
		return
	}
	m := r.Metrics
	m.TransferRows.WithLabelValues("upserted").Add(float64(res.Upserted))
	m.TransferRows.WithLabelValues("skipped").Add(float64(res.Skipped))
	m.TransferRows.WithLabelValues("dropped").Add(float64(res.Dropped))
	m.Resolutions.WithLabelValues("hit").Add(float64(res.Resolver.Hits))
	m.Resolutions.WithLabelValues("found").Add(float64(res.Resolver.Found))
	m.Resolutions.WithLabelValues("created").Add(float64(res.Resolver.Created))
	m.Resolutions.WithLabelValues("failed").Add(float64(res.Resolver.Failures))
}
