// Package apifootball is the API-Football v3 client used for league and team
// seeding.
//
// Auth uses the x-apisports-key header. Requests are paced with a token
// bucket limiter and retried with linear backoff on transport errors, 429 and
// 5xx. API-Football reports auth and quota failures with HTTP 200 and a
// non-empty "errors" field; those are returned as ErrAPI and never retried.
package apifootball

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/albapepper/scoracle-transfers/internal/logging"
	"github.com/albapepper/scoracle-transfers/internal/provider"
)

const (
	defaultBaseURL = "https://v3.football.api-sports.io"
	keyHeader      = "x-apisports-key"
	maxBodyBytes   = 4 << 20
)

var (
	// ErrTransient marks failures that were retried until attempts ran out.
	ErrTransient = crerr.New("api-football transient failure")
	// ErrAPI marks errors reported in the response body (bad key, quota).
	ErrAPI = crerr.New("api-football error")
	// ErrNotFound is returned when a league id yields no result.
	ErrNotFound = crerr.New("api-football: not found")
)

type ClientConfig struct {
	HTTPClient        *http.Client
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	MaxRetries        int
	Timeout           time.Duration
	RetryBackoff      time.Duration
	Logger            *logging.Logger
}

// Client is the HTTP client for the API-Football endpoints used by seeding.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *logging.Logger
}

var _ provider.Client = (*Client)(nil)

// NewClient creates an API-Football client with rate limiting.
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		maxRetries: max(cfg.MaxRetries, 0),
		backoff:    backoff,
		logger:     logger,
	}
}

// --------------------------------------------------------------------------
// Wire types
// --------------------------------------------------------------------------

type envelope[T any] struct {
	Errors   any `json:"errors"`
	Results  int `json:"results"`
	Response []T `json:"response"`
}

type leagueItem struct {
	League struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
		Logo string `json:"logo"`
	} `json:"league"`
	Country struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"country"`
	Seasons []struct {
		Year    int  `json:"year"`
		Current bool `json:"current"`
	} `json:"seasons"`
}

type teamItem struct {
	Team struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Code    string `json:"code"`
		Country string `json:"country"`
		Founded *int   `json:"founded"`
		Logo    string `json:"logo"`
	} `json:"team"`
	Venue struct {
		Name     string `json:"name"`
		City     string `json:"city"`
		Capacity *int   `json:"capacity"`
	} `json:"venue"`
}

// --------------------------------------------------------------------------
// Endpoints
// --------------------------------------------------------------------------

// GetLeague fetches league metadata and its current season.
func (c *Client) GetLeague(ctx context.Context, leagueID int) (provider.League, error) {
	var env envelope[leagueItem]
	if err := c.get(ctx, "/leagues", url.Values{"id": {strconv.Itoa(leagueID)}}, &env); err != nil {
		return provider.League{}, fmt.Errorf("fetch league %d: %w", leagueID, err)
	}
	if len(env.Response) == 0 {
		return provider.League{}, fmt.Errorf("league %d: %w", leagueID, ErrNotFound)
	}

	item := env.Response[0]
	out := provider.League{
		APIID:       item.League.ID,
		Name:        strings.TrimSpace(item.League.Name),
		Type:        strings.TrimSpace(item.League.Type),
		Country:     strings.TrimSpace(item.Country.Name),
		CountryCode: strings.ToUpper(strings.TrimSpace(item.Country.Code)),
		Logo:        item.League.Logo,
	}
	for _, s := range item.Seasons {
		if s.Current {
			year := s.Year
			out.CurrentSeason = &year
			break
		}
	}
	return out, nil
}

// GetTeams fetches every team (with venue) registered in a league season.
func (c *Client) GetTeams(ctx context.Context, leagueID, season int) ([]provider.Team, error) {
	params := url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {strconv.Itoa(season)},
	}
	var env envelope[teamItem]
	if err := c.get(ctx, "/teams", params, &env); err != nil {
		return nil, fmt.Errorf("fetch teams league=%d season=%d: %w", leagueID, season, err)
	}

	teams := make([]provider.Team, 0, len(env.Response))
	for _, item := range env.Response {
		if item.Team.ID <= 0 {
			continue
		}
		teams = append(teams, provider.Team{
			APIID:         item.Team.ID,
			Name:          strings.TrimSpace(item.Team.Name),
			Code:          strings.TrimSpace(item.Team.Code),
			Country:       strings.TrimSpace(item.Team.Country),
			Founded:       item.Team.Founded,
			Logo:          item.Team.Logo,
			VenueName:     strings.TrimSpace(item.Venue.Name),
			VenueCity:     strings.TrimSpace(item.Venue.City),
			VenueCapacity: item.Venue.Capacity,
		})
	}
	return teams, nil
}

// --------------------------------------------------------------------------
// Transport
// --------------------------------------------------------------------------

// get performs a rate-limited GET with retries and decodes into target.
func (c *Client) get(ctx context.Context, path string, params url.Values, target any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.execute(ctx, u)
	if err != nil {
		return err
	}

	var probe struct {
		Errors any `json:"errors"`
	}
	if err := sonic.Unmarshal(body, &probe); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if msg := apiErrors(probe.Errors); msg != "" {
		return crerr.Wrapf(ErrAPI, "%s: %s", path, msg)
	}

	if err := sonic.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set(keyHeader, c.apiKey)
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: send request: %s", ErrTransient, c.redact(err.Error()))
		} else {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", ErrTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return body, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: status=%d body=%s", ErrTransient, resp.StatusCode, truncate(body, 200))
			default:
				return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, truncate(body, 200))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.Warn("API-Football request failed", "url", fullURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

// apiErrors flattens the "errors" field, which is [] when empty and an
// object of {field: message} otherwise.
func apiErrors(v any) string {
	switch e := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(e))
		for k := range e {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, e[k]))
		}
		return strings.Join(parts, "; ")
	case []any:
		parts := make([]string, 0, len(e))
		for _, item := range e {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "; ")
	case string:
		return e
	default:
		return ""
	}
}

func (c *Client) redact(s string) string {
	if c.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, c.apiKey, "REDACTED")
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
