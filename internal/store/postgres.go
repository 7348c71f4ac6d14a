package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/albapepper/scoracle-transfers/internal/db"
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres executes the prepared statements registered by db.New. Every call
// runs under its own deadline.
type Postgres struct {
	q       Querier
	timeout time.Duration
}

func NewPostgres(q Querier, callTimeout time.Duration) *Postgres {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Postgres{q: q, timeout: callTimeout}
}

func (s *Postgres) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// --------------------------------------------------------------------------
// Leagues
// --------------------------------------------------------------------------

// FindLeagueByName returns the oldest league with exactly this name, or nil.
func (s *Postgres) FindLeagueByName(ctx context.Context, name string) (*League, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var l League
	err := s.q.QueryRow(ctx, db.StmtLeagueByName, name).Scan(
		&l.ID, &l.APIID, &l.Name, &l.Type, &l.CountryCode, &l.Season, &l.Logo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find league %q: %w", name, err)
	}
	return &l, nil
}

// InsertLeague creates a league without an API id and returns its id.
func (s *Postgres) InsertLeague(ctx context.Context, l League) (int64, error) {
	if err := Validate(l); err != nil {
		return 0, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var id int64
	if err := s.q.QueryRow(ctx, db.StmtLeagueInsert, l.Name, l.Type, l.CountryCode).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert league %q: %w", l.Name, err)
	}
	return id, nil
}

// UpsertLeague inserts or updates a league keyed by its API id.
func (s *Postgres) UpsertLeague(ctx context.Context, l League) (int64, error) {
	if l.APIID == nil {
		return 0, fmt.Errorf("upsert league %q: api id is required", l.Name)
	}
	if err := Validate(l); err != nil {
		return 0, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var id int64
	err := s.q.QueryRow(ctx, db.StmtLeagueUpsert,
		*l.APIID, l.Name, l.Type, l.CountryCode, l.Season, l.Logo,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert league %d: %w", *l.APIID, err)
	}
	return id, nil
}

// --------------------------------------------------------------------------
// Clubs
// --------------------------------------------------------------------------

// FindClubByName returns the oldest club with exactly this name, or nil.
func (s *Postgres) FindClubByName(ctx context.Context, name string) (*Club, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var c Club
	err := s.q.QueryRow(ctx, db.StmtClubByName, name).Scan(
		&c.ID, &c.APIID, &c.Name, &c.ShortCode, &c.CountryCode, &c.LeagueID, &c.Founded,
		&c.Logo, &c.VenueName, &c.VenueCity, &c.VenueCapacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find club %q: %w", name, err)
	}
	return &c, nil
}

// InsertClub creates a club without an API id and returns its id.
func (s *Postgres) InsertClub(ctx context.Context, c Club) (int64, error) {
	if err := Validate(c); err != nil {
		return 0, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var id int64
	if err := s.q.QueryRow(ctx, db.StmtClubInsert, c.Name, c.CountryCode, c.LeagueID).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert club %q: %w", c.Name, err)
	}
	return id, nil
}

// UpsertClub inserts or updates a club keyed by its API id.
func (s *Postgres) UpsertClub(ctx context.Context, c Club) (int64, error) {
	if c.APIID == nil {
		return 0, fmt.Errorf("upsert club %q: api id is required", c.Name)
	}
	if err := Validate(c); err != nil {
		return 0, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var id int64
	err := s.q.QueryRow(ctx, db.StmtClubUpsert,
		*c.APIID, c.Name, c.ShortCode, c.CountryCode, c.LeagueID, c.Founded,
		c.Logo, c.VenueName, c.VenueCity, c.VenueCapacity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert club %d: %w", *c.APIID, err)
	}
	return id, nil
}

// --------------------------------------------------------------------------
// Transfers
// --------------------------------------------------------------------------

// UpsertTransfer writes t keyed by its stable id. inserted is false when an
// existing row was updated in place.
func (s *Postgres) UpsertTransfer(ctx context.Context, t Transfer) (inserted bool, err error) {
	if err := Validate(t); err != nil {
		return false, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	date := pgtype.Date{Time: t.TransferDate.UTC().Truncate(24 * time.Hour), Valid: true}
	err = s.q.QueryRow(ctx, db.StmtTransferUpsert,
		t.ID, t.PlayerFirstName, t.PlayerLastName, t.PlayerName, t.Age, t.Position, t.Nationality,
		t.FromClubID, t.FromClubName, t.DepartedCountry,
		t.ToClubID, t.ToClubName, t.JoinedCountry,
		t.LeagueID, t.LeagueName, string(t.Type), t.FeeMinor, t.FeeDisplay,
		t.MarketValueDisplay, t.Status, date, t.Window, t.SourcePage,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert transfer %d: %w", t.ID, err)
	}
	return inserted, nil
}

// CountTransfers returns the number of stored transfers.
func (s *Postgres) CountTransfers(ctx context.Context) (int64, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var n int64
	if err := s.q.QueryRow(ctx, db.StmtTransferCount).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transfers: %w", err)
	}
	return n, nil
}
