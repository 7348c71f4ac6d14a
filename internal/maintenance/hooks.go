// Package maintenance holds post-ingest database chores.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/scoracle-transfers/internal/logging"
)

// Views are refreshed in order after a successful CSV phase.
var Views = []string{
	"mv_club_transfer_summary",
}

// Execer is satisfied by *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RefreshMaterializedViews refreshes every view in Views. Uses CONCURRENTLY so
// reads are not blocked during refresh; each view needs a unique index.
func RefreshMaterializedViews(ctx context.Context, db Execer, logger *logging.Logger) error {
	for _, v := range Views {
		start := time.Now()
		_, err := db.Exec(ctx, fmt.Sprintf("REFRESH MATERIALIZED VIEW CONCURRENTLY %s", v))
		dur := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Warn("Failed to refresh materialized view",
				"view", v, "duration", dur, "error", err)
			return fmt.Errorf("refresh %s: %w", v, err)
		}
		logger.Info("Refreshed materialized view", "view", v, "duration", dur)
	}
	return nil
}

// Refresher binds db for use as seed.Runner.Refresh.
func Refresher(db Execer, logger *logging.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		return RefreshMaterializedViews(ctx, db, logger)
	}
}
