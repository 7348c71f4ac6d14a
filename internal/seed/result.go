// Package seed orchestrates the two ingestion phases: league/club seeding from
// API-Football and transfer ingestion from the scraped CSV.
package seed

import (
	"fmt"
	"time"

	"github.com/albapepper/scoracle-transfers/internal/resolve"
)

// LeagueResult tracks counts from the league/club phase.
type LeagueResult struct {
	LeaguesUpserted int
	ClubsUpserted   int
}

// Summary returns a human-readable summary of the league phase.
func (r *LeagueResult) Summary() string {
	return fmt.Sprintf("leagues=%d clubs=%d", r.LeaguesUpserted, r.ClubsUpserted)
}

// TransferResult tracks counts and skip reasons from the CSV phase. Rows
// excludes rows dropped for a blank player.
type TransferResult struct {
	Rows     int
	Dropped  int
	Upserted int
	Inserted int
	Skipped  int
	Errors   []string
	Resolver resolve.Stats
}

// AddSkipf records a skipped row and its reason.
func (r *TransferResult) AddSkipf(format string, args ...interface{}) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the CSV phase.
func (r *TransferResult) Summary() string {
	return fmt.Sprintf(
		"rows=%d dropped=%d upserted=%d inserted=%d updated=%d skipped=%d",
		r.Rows, r.Dropped, r.Upserted, r.Inserted, r.Upserted-r.Inserted, r.Skipped,
	)
}

// RunResult is the outcome of SeedAll.
type RunResult struct {
	RunID     string
	Leagues   LeagueResult
	Transfers TransferResult
	Duration  time.Duration
}

// Summary returns a human-readable summary of the whole run.
func (r *RunResult) Summary() string {
	return fmt.Sprintf("run=%s %s %s duration=%s",
		r.RunID, r.Leagues.Summary(), r.Transfers.Summary(), r.Duration.Round(time.Millisecond))
}
