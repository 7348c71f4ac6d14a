package apifootball

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-transfers/internal/logging"
)

const leaguePayload = `{
  "get": "leagues",
  "errors": [],
  "results": 1,
  "response": [{
    "league": {"id": 39, "name": "Premier League", "type": "League", "logo": "https://media.api-sports.io/football/leagues/39.png"},
    "country": {"name": "England", "code": "GB", "flag": "https://media.api-sports.io/flags/gb.svg"},
    "seasons": [
      {"year": 2023, "current": false},
      {"year": 2024, "current": true}
    ]
  }]
}`

const teamsPayload = `{
  "get": "teams",
  "errors": [],
  "results": 2,
  "response": [
    {"team": {"id": 33, "name": "Manchester United", "code": "MUN", "country": "England", "founded": 1878, "logo": "u.png"},
     "venue": {"id": 556, "name": "Old Trafford", "city": "Manchester", "capacity": 76212}},
    {"team": {"id": 42, "name": "Arsenal", "code": "ARS", "country": "England", "founded": null, "logo": "a.png"},
     "venue": {"id": 494, "name": "Emirates Stadium", "city": "London", "capacity": null}}
  ]
}`

func newTestClient(t *testing.T, h http.HandlerFunc, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		BaseURL:           srv.URL + "/",
		APIKey:            "secret-key",
		RequestsPerMinute: 60_000,
		MaxRetries:        retries,
		Timeout:           5 * time.Second,
		RetryBackoff:      time.Millisecond,
		Logger:            logging.NewNop(),
	})
}

func TestGetLeague(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leagues", r.URL.Path)
		assert.Equal(t, "39", r.URL.Query().Get("id"))
		assert.Equal(t, "secret-key", r.Header.Get("x-apisports-key"))
		_, _ = w.Write([]byte(leaguePayload))
	}, 0)

	l, err := c.GetLeague(context.Background(), 39)
	require.NoError(t, err)
	assert.Equal(t, int64(39), l.APIID)
	assert.Equal(t, "Premier League", l.Name)
	assert.Equal(t, "League", l.Type)
	assert.Equal(t, "England", l.Country)
	assert.Equal(t, "GB", l.CountryCode)
	require.NotNil(t, l.CurrentSeason)
	assert.Equal(t, 2024, *l.CurrentSeason)
}

func TestGetTeams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams", r.URL.Path)
		assert.Equal(t, "39", r.URL.Query().Get("league"))
		assert.Equal(t, "2024", r.URL.Query().Get("season"))
		_, _ = w.Write([]byte(teamsPayload))
	}, 0)

	teams, err := c.GetTeams(context.Background(), 39, 2024)
	require.NoError(t, err)
	require.Len(t, teams, 2)

	mu := teams[0]
	assert.Equal(t, int64(33), mu.APIID)
	assert.Equal(t, "MUN", mu.Code)
	require.NotNil(t, mu.Founded)
	assert.Equal(t, 1878, *mu.Founded)
	assert.Equal(t, "Old Trafford", mu.VenueName)
	require.NotNil(t, mu.VenueCapacity)
	assert.Equal(t, 76212, *mu.VenueCapacity)

	assert.Nil(t, teams[1].Founded)
	assert.Nil(t, teams[1].VenueCapacity)
}

func TestAPIErrorsFieldIsSurfaced(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"errors": {"token": "Error/Missing application key."}, "results": 0, "response": []}`))
	}, 3)

	_, err := c.GetLeague(context.Background(), 39)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAPI))
	assert.Contains(t, err.Error(), "Missing application key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmptyLeagueIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [], "results": 0, "response": []}`))
	}, 0)

	_, err := c.GetLeague(context.Background(), 999999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(leaguePayload))
	}, 2)

	_, err := c.GetLeague(context.Background(), 39)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, 1)

	_, err := c.GetTeams(context.Background(), 39, 2024)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransient))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`forbidden`))
	}, 3)

	_, err := c.GetLeague(context.Background(), 39)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTransient))
	assert.Contains(t, err.Error(), "status=403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestApiErrorsShapes(t *testing.T) {
	assert.Equal(t, "", apiErrors(nil))
	assert.Equal(t, "", apiErrors([]any{}))
	assert.Equal(t, "a: x; b: y", apiErrors(map[string]any{"b": "y", "a": "x"}))
	assert.Equal(t, "quota", apiErrors([]any{"quota"}))
}
