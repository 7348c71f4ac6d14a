// Package resolve maps denormalized league and club names from transfer rows
// to persisted entity ids, creating entities the first time they are seen.
//
// A Resolver caches every resolution for its own lifetime, which is one
// ingestion run. It is not safe for concurrent use: rows are resolved one at
// a time and the cache relies on that ordering to stay consistent with the
// datastore.
package resolve

import (
	"context"
	"strings"

	"github.com/albapepper/scoracle-transfers/internal/logging"
	"github.com/albapepper/scoracle-transfers/internal/normalize"
	"github.com/albapepper/scoracle-transfers/internal/store"
)

// Store is the datastore surface needed for get-or-create.
type Store interface {
	FindLeagueByName(ctx context.Context, name string) (*store.League, error)
	InsertLeague(ctx context.Context, l store.League) (int64, error)
	FindClubByName(ctx context.Context, name string) (*store.Club, error)
	InsertClub(ctx context.Context, c store.Club) (int64, error)
}

// Ref is a resolved entity reference.
type Ref struct {
	ID   int64
	Name string
}

// Stats counts resolver activity for one run.
type Stats struct {
	Lookups  int // non-empty names requested
	Hits     int // served from cache
	Found    int // matched an existing row
	Created  int // inserted a new row
	Failures int // datastore error, resolved to nil
}

type Resolver struct {
	store           Store
	logger          *logging.Logger
	fallbackCountry string

	leagues map[string]Ref
	clubs   map[string]Ref
	stats   Stats
}

func New(s Store, fallbackCountry string, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		store:           s,
		logger:          logger,
		fallbackCountry: fallbackCountry,
		leagues:         make(map[string]Ref),
		clubs:           make(map[string]Ref),
	}
}

func (r *Resolver) Stats() Stats { return r.stats }

func cacheKey(name, country string) string {
	return strings.ToLower(name) + "|" + country
}

func (r *Resolver) country(code string) string {
	if code == "" {
		return r.fallbackCountry
	}
	return code
}

// League resolves a league name. It returns nil for a blank or "Unknown
// League" name, and for datastore failures, which are logged.
func (r *Resolver) League(ctx context.Context, name, country string) *Ref {
	name = normalize.Sanitize(name, "")
	if name == "" || strings.EqualFold(name, normalize.NoLeague) {
		return nil
	}
	country = r.country(country)
	key := cacheKey(name, country)

	r.stats.Lookups++
	if ref, ok := r.leagues[key]; ok {
		r.stats.Hits++
		return &ref
	}

	existing, err := r.store.FindLeagueByName(ctx, name)
	if err != nil {
		r.stats.Failures++
		r.logger.Warn("League lookup failed", "league", name, "error", err)
		return nil
	}
	if existing != nil {
		ref := Ref{ID: existing.ID, Name: existing.Name}
		r.leagues[key] = ref
		r.stats.Found++
		return &ref
	}

	id, err := r.store.InsertLeague(ctx, store.League{
		Name:        name,
		Type:        store.DefaultLeagueType,
		CountryCode: country,
	})
	if err != nil {
		r.stats.Failures++
		r.logger.Warn("League insert failed", "league", name, "error", err)
		return nil
	}
	ref := Ref{ID: id, Name: name}
	r.leagues[key] = ref
	r.stats.Created++
	r.logger.Debug("Created league", "league", name, "id", id, "country", country)
	return &ref
}

// Club resolves a club name, scoping newly created clubs under leagueID when
// it is known. It returns nil for a blank or "Without Club" name, and for
// datastore failures, which are logged.
func (r *Resolver) Club(ctx context.Context, name, country string, leagueID *int64) *Ref {
	name = normalize.Sanitize(name, "")
	if name == "" || strings.EqualFold(name, normalize.NoClub) {
		return nil
	}
	country = r.country(country)
	key := cacheKey(name, country)

	r.stats.Lookups++
	if ref, ok := r.clubs[key]; ok {
		r.stats.Hits++
		return &ref
	}

	existing, err := r.store.FindClubByName(ctx, name)
	if err != nil {
		r.stats.Failures++
		r.logger.Warn("Club lookup failed", "club", name, "error", err)
		return nil
	}
	if existing != nil {
		ref := Ref{ID: existing.ID, Name: existing.Name}
		r.clubs[key] = ref
		r.stats.Found++
		return &ref
	}

	id, err := r.store.InsertClub(ctx, store.Club{
		Name:        name,
		CountryCode: country,
		LeagueID:    leagueID,
	})
	if err != nil {
		r.stats.Failures++
		r.logger.Warn("Club insert failed", "club", name, "error", err)
		return nil
	}
	ref := Ref{ID: id, Name: name}
	r.clubs[key] = ref
	r.stats.Created++
	r.logger.Debug("Created club", "club", name, "id", id, "country", country)
	return &ref
}
