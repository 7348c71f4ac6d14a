package seed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-transfers/internal/identity"
	"github.com/albapepper/scoracle-transfers/internal/logging"
	"github.com/albapepper/scoracle-transfers/internal/metrics"
	"github.com/albapepper/scoracle-transfers/internal/provider"
	"github.com/albapepper/scoracle-transfers/internal/store/memory"
)

const header = "page,player,position,age,nationality,club_departed,club_departed_country,club_departed_competition,club_joined,club_joined_country,club_joined_competition,transfer_date,market_value,fee\n"

type fakeClient struct {
	leagues map[int]provider.League
	teams   map[int][]provider.Team
	err     error
}

func (f *fakeClient) GetLeague(_ context.Context, id int) (provider.League, error) {
	if f.err != nil {
		return provider.League{}, f.err
	}
	l, ok := f.leagues[id]
	if !ok {
		return provider.League{}, errors.Newf("league %d not found", id)
	}
	return l, nil
}

func (f *fakeClient) GetTeams(_ context.Context, id, _ int) ([]provider.Team, error) {
	return f.teams[id], nil
}

func premierLeague() *fakeClient {
	season := 2024
	return &fakeClient{
		leagues: map[int]provider.League{
			39: {APIID: 39, Name: "Premier League", Type: "League", Country: "England", CountryCode: "GB", CurrentSeason: &season},
		},
		teams: map[int][]provider.Team{
			39: {
				{APIID: 42, Name: "Arsenal", Code: "ARS", Country: "England", VenueName: "Emirates Stadium", VenueCity: "London"},
				{APIID: 48, Name: "West Ham", Code: "WES", Country: "England"},
			},
		},
	}
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transfers.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+body), 0o600))
	return path
}

func newRunner(t *testing.T, s *memory.Store, client provider.Client, csvPath string, logger *logging.Logger) *Runner {
	t.Helper()
	ids, err := identity.NewGenerator(identity.FNV64)
	require.NoError(t, err)
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		Store:           s,
		Client:          client,
		Leagues:         LeagueOptions{LeagueIDs: []int{39}, Season: 2024, FallbackCountry: "XX"},
		CSVPath:         csvPath,
		IDs:             ids,
		FallbackCountry: "XX",
		Logger:          logger,
	}
}

func TestSeedAllSkipsBadDateRow(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "json", logging.LevelInfo)
	path := writeCSV(t,
		"1,Declan Rice,Defensive Midfield,24,England,West Ham,England,Premier League,Arsenal,England,Premier League,15/07/2023,€90.00m,€116.60m\n"+
			"1,Kai Havertz,Attacking Midfield,24,Germany,Chelsea,England,Premier League,Arsenal,England,Premier League,not-a-date,€55.00m,€75.00m\n")

	s := memory.New()
	res, err := newRunner(t, s, premierLeague(), path, logger).SeedAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Transfers.Rows)
	assert.Equal(t, 1, res.Transfers.Upserted)
	assert.Equal(t, 1, res.Transfers.Skipped)
	require.Len(t, res.Transfers.Errors, 1)
	assert.Contains(t, res.Transfers.Errors[0], "Kai Havertz")
	assert.NotEmpty(t, res.RunID)

	assert.Len(t, s.Transfers(), 1)
	assert.Equal(t, 1, strings.Count(buf.String(), "Skipped transfer row"))
	assert.Contains(t, buf.String(), `"transfer_date":"not-a-date"`)
}

func TestSeedAllIsIdempotent(t *testing.T) {
	path := writeCSV(t,
		"1,Declan Rice,Defensive Midfield,24,England,West Ham,England,Premier League,Arsenal,England,Premier League,15/07/2023,€90.00m,€116.60m\n"+
			"2,Rodrygo,Right Winger,18,Brazil,Santos,Brazil,Série A,Real Madrid,Spain,LaLiga,01/07/2019,€10m,€45m\n"+
			"2,Lucas Paquetá,Attacking Midfield,25,Brazil,Olympique Lyon,France,Ligue 1,West Ham,England,Premier League,29/08/2022,€38m,€42.95m\n")

	s := memory.New()
	r := newRunner(t, s, premierLeague(), path, nil)

	first, err := r.SeedAll(context.Background())
	require.NoError(t, err)
	clubs, leagues := len(s.Clubs()), len(s.Leagues())

	second, err := r.SeedAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, first.Transfers.Inserted)
	assert.Equal(t, 3, second.Transfers.Upserted)
	assert.Zero(t, second.Transfers.Inserted)
	assert.Len(t, s.Transfers(), 3)
	assert.Len(t, s.Clubs(), clubs)
	assert.Len(t, s.Leagues(), leagues)
}

func TestSeededClubsAreReusedByResolver(t *testing.T) {
	path := writeCSV(t,
		"1,Declan Rice,Defensive Midfield,24,England,West Ham,England,Premier League,Arsenal,England,Premier League,15/07/2023,€90.00m,€116.60m\n"+
			"1,Jurriën Timber,Centre-Back,22,Netherlands,Ajax,Netherlands,Eredivisie,Arsenal,England,Premier League,14/07/2023,€35m,€40m\n")

	s := memory.New()
	res, err := newRunner(t, s, premierLeague(), path, nil).SeedAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Transfers.Upserted)

	// Arsenal, West Ham from the API; Ajax created from the file.
	clubs := s.Clubs()
	require.Len(t, clubs, 3)
	assert.Equal(t, "Ajax", clubs[2].Name)
	assert.Nil(t, clubs[2].APIID)
	assert.Equal(t, "NL", clubs[2].CountryCode)

	// Premier League matched by name; Arsenal served from cache on row 2.
	assert.Len(t, s.Leagues(), 1)
	assert.Equal(t, 1, res.Transfers.Resolver.Created)
	assert.Equal(t, 2, res.Transfers.Resolver.Hits)

	var arsenal int64
	for _, c := range clubs {
		if c.Name == "Arsenal" {
			arsenal = c.ID
		}
	}
	for _, tr := range s.Transfers() {
		require.NotNil(t, tr.ToClubID)
		assert.Equal(t, arsenal, *tr.ToClubID)
		require.NotNil(t, tr.LeagueID)
	}
}

func TestLeaguePhaseFailureAbortsRun(t *testing.T) {
	path := writeCSV(t, "1,Declan Rice,,,England,West Ham,England,,Arsenal,England,,15/07/2023,,€116.60m\n")
	s := memory.New()
	client := &fakeClient{err: errors.New("401 unauthorized")}

	_, err := newRunner(t, s, client, path, nil).SeedAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLeaguePhase))
	assert.Empty(t, s.Transfers())
}

func TestLeagueUpsertFailureIsPhaseFatal(t *testing.T) {
	s := memory.New()
	s.FailNames["Premier League"] = errors.New("unique violation")

	_, err := SeedLeagues(context.Background(), s, premierLeague(),
		LeagueOptions{LeagueIDs: []int{39}, Season: 2024, FallbackCountry: "XX"}, logging.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLeaguePhase))
	assert.Contains(t, err.Error(), "unique violation")
	assert.Empty(t, s.Clubs())
}

func TestMissingCSVAbortsBeforeWrites(t *testing.T) {
	s := memory.New()
	_, err := newRunner(t, s, premierLeague(), filepath.Join(t.TempDir(), "nope.csv"), nil).
		SeedAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, s.Leagues())
}

func TestSeedLeaguesUsesCurrentSeasonAndCountryFallback(t *testing.T) {
	season := 2025
	client := &fakeClient{
		leagues: map[int]provider.League{
			2: {APIID: 2, Name: "UEFA Champions League", Type: "Cup", Country: "World", CurrentSeason: &season},
		},
		teams: map[int][]provider.Team{
			2: {{APIID: 541, Name: "Real Madrid", Country: "Spain"}},
		},
	}
	s := memory.New()
	res, err := SeedLeagues(context.Background(), s, client,
		LeagueOptions{LeagueIDs: []int{2}, FallbackCountry: "XX"}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, LeagueResult{LeaguesUpserted: 1, ClubsUpserted: 1}, res)

	leagues := s.Leagues()
	require.Len(t, leagues, 1)
	assert.Equal(t, "XX", leagues[0].CountryCode)
	assert.Equal(t, "Cup", leagues[0].Type)

	clubs := s.Clubs()
	require.Len(t, clubs, 1)
	assert.Equal(t, "ES", clubs[0].CountryCode)
	assert.Equal(t, leagues[0].ID, *clubs[0].LeagueID)
}

func TestMetricsRecorded(t *testing.T) {
	path := writeCSV(t,
		"1,Declan Rice,Defensive Midfield,24,England,West Ham,England,Premier League,Arsenal,England,Premier League,15/07/2023,€90.00m,€116.60m\n"+
			"1,,Goalkeeper,30,Spain,A,Spain,,B,Spain,,01/07/2023,-,-\n"+
			"1,Nobody,Goalkeeper,30,Spain,A,Spain,,B,Spain,,??,-,-\n")

	reg := metrics.NewRegistry()
	r := newRunner(t, memory.New(), premierLeague(), path, nil)
	r.Metrics = reg
	_, err := r.SeedAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.TransferRows.WithLabelValues("upserted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.TransferRows.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.TransferRows.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.LeaguesUpserted))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.ClubsUpserted))
	assert.Positive(t, testutil.ToFloat64(reg.LastSuccessUnix))
}

func TestRefreshFailureDoesNotFailRun(t *testing.T) {
	path := writeCSV(t, "1,Declan Rice,,,England,West Ham,England,,Arsenal,England,,15/07/2023,,€116.60m\n")
	r := newRunner(t, memory.New(), premierLeague(), path, nil)
	called := false
	r.Refresh = func(context.Context) error {
		called = true
		return errors.New("view missing")
	}

	_, err := r.SeedAll(context.Background())
	require.NoError(t, err)
	assert.True(t, called)
}

func TestSeedAllStopsOnCancelledContext(t *testing.T) {
	path := writeCSV(t, "1,Declan Rice,,,England,West Ham,England,,Arsenal,England,,15/07/2023,,€116.60m\n")
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, s, premierLeague(), path, nil)
	res, err := r.IngestTransfers(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, res.Upserted)
	assert.Empty(t, s.Transfers())
}

func TestRunnerWithoutClientFailsLeaguePhase(t *testing.T) {
	path := writeCSV(t, "")
	r := newRunner(t, memory.New(), nil, path, nil)
	_, err := r.SeedAll(context.Background())
	assert.True(t, errors.Is(err, ErrLeaguePhase))

	res, err := r.IngestTransfers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
}
