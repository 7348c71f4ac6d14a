package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/albapepper/scoracle-transfers/internal/logging"
	"github.com/albapepper/scoracle-transfers/internal/normalize"
	"github.com/albapepper/scoracle-transfers/internal/provider"
	"github.com/albapepper/scoracle-transfers/internal/store"
)

// ErrLeaguePhase marks failures of the league/club phase. They abort the run.
var ErrLeaguePhase = errors.New("league/club seeding failed")

// EntityStore upserts API-sourced leagues and clubs by their API id.
type EntityStore interface {
	UpsertLeague(ctx context.Context, l store.League) (int64, error)
	UpsertClub(ctx context.Context, c store.Club) (int64, error)
}

// LeagueOptions selects what SeedLeagues fetches.
type LeagueOptions struct {
	LeagueIDs       []int
	Season          int // <= 0 uses each league's current season
	FallbackCountry string
}

// SeedLeagues fetches each league and its teams and upserts them by API id.
// The first fetch or upsert failure stops the phase and is returned marked
// with ErrLeaguePhase.
func SeedLeagues(
	ctx context.Context,
	s EntityStore,
	client provider.Client,
	opts LeagueOptions,
	logger *logging.Logger,
) (LeagueResult, error) {
	var result LeagueResult

	for i, apiID := range opts.LeagueIDs {
		logger.Info("Seeding league", "step", fmt.Sprintf("%d/%d", i+1, len(opts.LeagueIDs)), "api_id", apiID)

		league, err := client.GetLeague(ctx, apiID)
		if err != nil {
			return result, phaseErr(err, "fetch league %d", apiID)
		}

		country := leagueCountry(league, opts.FallbackCountry)
		leagueID, err := s.UpsertLeague(ctx, store.League{
			APIID:       &league.APIID,
			Name:        league.Name,
			Type:        normalize.Sanitize(league.Type, store.DefaultLeagueType),
			CountryCode: country,
			Season:      league.CurrentSeason,
			Logo:        league.Logo,
		})
		if err != nil {
			return result, phaseErr(err, "upsert league %d", apiID)
		}
		result.LeaguesUpserted++

		season := opts.Season
		if season <= 0 && league.CurrentSeason != nil {
			season = *league.CurrentSeason
		}
		if season <= 0 {
			return result, phaseErr(errors.New("no season configured or current"), "league %d", apiID)
		}

		teams, err := client.GetTeams(ctx, apiID, season)
		if err != nil {
			return result, phaseErr(err, "fetch teams for league %d", apiID)
		}
		for _, team := range teams {
			if _, err := s.UpsertClub(ctx, clubFromTeam(team, leagueID, country)); err != nil {
				return result, phaseErr(err, "upsert club %d", team.APIID)
			}
			result.ClubsUpserted++
		}

		logger.Info("League seeded",
			"api_id", apiID, "name", league.Name, "season", season, "clubs", len(teams))
	}

	return result, nil
}

func phaseErr(err error, format string, args ...interface{}) error {
	return errors.Mark(fmt.Errorf(format+": %w", append(args, err)...), ErrLeaguePhase)
}

// leagueCountry prefers the provider's alpha-2 code and falls back to
// resolving the country name. International competitions resolve to the
// fallback code.
func leagueCountry(l provider.League, fallback string) string {
	code := strings.ToUpper(strings.TrimSpace(l.CountryCode))
	if len(code) == 2 {
		return code
	}
	return normalize.CountryOr(l.Country, fallback)
}

func clubFromTeam(t provider.Team, leagueID int64, country string) store.Club {
	apiID := t.APIID
	return store.Club{
		APIID:         &apiID,
		Name:          t.Name,
		ShortCode:     t.Code,
		CountryCode:   normalize.CountryOr(t.Country, country),
		LeagueID:      &leagueID,
		Founded:       t.Founded,
		Logo:          t.Logo,
		VenueName:     t.VenueName,
		VenueCity:     t.VenueCity,
		VenueCapacity: t.VenueCapacity,
	}
}
