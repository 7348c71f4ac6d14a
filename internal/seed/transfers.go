package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/panics"

	"github.com/albapepper/scoracle-transfers/internal/identity"
	"github.com/albapepper/scoracle-transfers/internal/logging"
	"github.com/albapepper/scoracle-transfers/internal/normalize"
	"github.com/albapepper/scoracle-transfers/internal/resolve"
	"github.com/albapepper/scoracle-transfers/internal/store"
	"github.com/albapepper/scoracle-transfers/internal/transfercsv"
)

// ErrBadDate is the skip reason for rows whose transfer date cannot be parsed.
var ErrBadDate = errors.New("unparseable transfer date")

// TransferStore writes canonical transfer records keyed by stable id.
type TransferStore interface {
	UpsertTransfer(ctx context.Context, t store.Transfer) (inserted bool, err error)
}

// Ingester turns raw CSV rows into canonical transfers. It owns the entity
// resolver for one run and processes rows strictly one at a time.
type Ingester struct {
	store           TransferStore
	resolver        *resolve.Resolver
	ids             *identity.Generator
	fallbackCountry string
	rowTimeout      time.Duration
	logger          *logging.Logger
}

type IngesterConfig struct {
	Store           TransferStore
	Resolver        *resolve.Resolver
	IDs             *identity.Generator
	FallbackCountry string
	RowTimeout      time.Duration // 0 means 30s
	Logger          *logging.Logger
}

func NewIngester(cfg IngesterConfig) *Ingester {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	ids := cfg.IDs
	if ids == nil {
		ids, _ = identity.NewGenerator(identity.FNV64)
	}
	timeout := cfg.RowTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Ingester{
		store:           cfg.Store,
		resolver:        cfg.Resolver,
		ids:             ids,
		fallbackCountry: cfg.FallbackCountry,
		rowTimeout:      timeout,
		logger:          logger,
	}
}

// IngestTransfers upserts every row, skipping rows that fail. A row failure
// (parse, resolve, validation, upsert or panic) is logged with the player and
// raw date and counted; it never stops the batch. Only cancellation of ctx
// ends the loop early, and is returned.
func (in *Ingester) IngestTransfers(ctx context.Context, rows []transfercsv.Row, dropped int) (TransferResult, error) {
	result := TransferResult{Rows: len(rows), Dropped: dropped}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			result.Resolver = in.resolver.Stats()
			return result, fmt.Errorf("transfer ingestion stopped at row %d of %d: %w", i, len(rows), err)
		}

		inserted, err := in.safeIngestRow(ctx, row)
		if err != nil {
			in.logger.Warn("Skipped transfer row",
				"line", row.Line, "player", row.Player, "transfer_date", row.TransferDate, "error", err)
			result.AddSkipf("line %d (%s, %s): %v", row.Line, row.Player, row.TransferDate, err)
			continue
		}
		result.Upserted++
		if inserted {
			result.Inserted++
		}
		if result.Upserted%500 == 0 {
			in.logger.Info("Transfer progress", "upserted", result.Upserted, "of", len(rows))
		}
	}

	result.Resolver = in.resolver.Stats()
	return result, nil
}

func (in *Ingester) safeIngestRow(ctx context.Context, row transfercsv.Row) (inserted bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, in.rowTimeout)
	defer cancel()

	var catcher panics.Catcher
	catcher.Try(func() {
		inserted, err = in.ingestRow(ctx, row)
	})
	if r := catcher.Recovered(); r != nil {
		return false, r.AsError()
	}
	return inserted, err
}

func (in *Ingester) ingestRow(ctx context.Context, row transfercsv.Row) (bool, error) {
	t, err := in.Assemble(ctx, row)
	if err != nil {
		return false, err
	}
	if err := store.Validate(t); err != nil {
		return false, err
	}
	return in.store.UpsertTransfer(ctx, t)
}

// Assemble normalizes one row, resolves its league and clubs, and builds the
// canonical record. Resolution failures leave the reference nil; only an
// unparseable date is an error.
func (in *Ingester) Assemble(ctx context.Context, row transfercsv.Row) (store.Transfer, error) {
	date, ok := normalize.ParseDate(row.TransferDate)
	if !ok {
		return store.Transfer{}, errors.Wrapf(ErrBadDate, "%q", row.TransferDate)
	}

	playerName := normalize.CollapseSpace(row.Player)
	first, last := normalize.SplitName(playerName)

	var nationality *string
	if code, ok := normalize.ResolveCountry(row.Nationality); ok {
		nationality = &code
	}
	departedCountry := in.clubCountry(row.ClubDepartedCountry, row.Nationality)
	joinedCountry := in.clubCountry(row.ClubJoinedCountry, row.Nationality)

	leagueName, leagueCountry := normalize.NoLeague, joinedCountry
	if name := normalize.Sanitize(row.ClubJoinedCompetition, ""); name != "" {
		leagueName = name
	} else if name := normalize.Sanitize(row.ClubDepartedCompetition, ""); name != "" {
		leagueName, leagueCountry = name, departedCountry
	}

	var leagueID *int64
	if ref := in.resolver.League(ctx, leagueName, leagueCountry); ref != nil {
		leagueID = &ref.ID
	}

	fromName := normalize.Sanitize(row.ClubDeparted, normalize.NoClub)
	toName := normalize.Sanitize(row.ClubJoined, normalize.NoClub)
	var fromID, toID *int64
	if ref := in.resolver.Club(ctx, fromName, departedCountry, leagueID); ref != nil {
		fromID = &ref.ID
	}
	if ref := in.resolver.Club(ctx, toName, joinedCountry, leagueID); ref != nil {
		toID = &ref.ID
	}

	fee := normalize.ParseMoney(row.Fee, row.MarketValue)

	return store.Transfer{
		ID:                 in.ids.ID(row.Player, row.TransferDate, row.ClubDeparted, row.ClubJoined, row.Fee),
		PlayerFirstName:    first,
		PlayerLastName:     last,
		PlayerName:         playerName,
		Age:                normalize.ParseAge(row.Age),
		Position:           normalize.Sanitize(row.Position, normalize.NoPosition),
		Nationality:        nationality,
		FromClubID:         fromID,
		FromClubName:       fromName,
		DepartedCountry:    departedCountry,
		ToClubID:           toID,
		ToClubName:         toName,
		JoinedCountry:      joinedCountry,
		LeagueID:           leagueID,
		LeagueName:         leagueName,
		Type:               normalize.ClassifyTransferType(row.Fee),
		FeeMinor:           fee.Minor,
		FeeDisplay:         fee.Display,
		MarketValueDisplay: normalize.Sanitize(row.MarketValue, ""),
		Status:             store.StatusDone,
		TransferDate:       date,
		Window:             normalize.WindowLabel(date),
		SourcePage:         normalize.Sanitize(row.Page, ""),
	}, nil
}

// clubCountry resolves a club's country column. A blank column falls back to
// the player's nationality; anything unresolvable falls back to the
// configured code.
// TODO: drop the nationality proxy if product confirms it is unintended.
func (in *Ingester) clubCountry(raw, nationality string) string {
	if normalize.Sanitize(raw, "") == "" {
		raw = nationality
	}
	return normalize.CountryOr(raw, in.fallbackCountry)
}
