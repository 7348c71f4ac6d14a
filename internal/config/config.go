// Package config provides centralized configuration loaded from environment
// variables for the ingest CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultLeagueIDs are the API-Football league ids seeded when SEED_LEAGUE_IDS
// is unset: Premier League, La Liga, Serie A, Bundesliga, Ligue 1.
var DefaultLeagueIDs = []int{39, 140, 135, 78, 61}

const (
	DefaultCSVPath         = "data/transfers.csv"
	DefaultFallbackCountry = "XX"
	IDSchemeFNV64          = "fnv64"
	IDSchemeLegacy32       = "legacy32"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	DBCallTimeout  time.Duration

	// API-Football
	APIFootballKey        string
	APIFootballBaseURL    string
	APIFootballRPM        int
	APIFootballMaxRetries int
	APIFootballTimeout    time.Duration

	// Seeding
	SeedLeagueIDs []int
	SeedSeason    int

	// Transfers CSV
	TransfersCSVPath    string
	TransferIDScheme    string
	FallbackCountryCode string
	RunTimeout          time.Duration

	// Observability
	LogLevel    string
	LogFormat   string
	MetricsFile string
}

// Load reads configuration from environment variables with sensible defaults.
// DATABASE_URL is the only hard requirement.
func Load() (*Config, error) {
	cfg, err := LoadWithoutDatabase()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	return cfg, nil
}

// LoadWithoutDatabase reads everything Load does but tolerates a missing
// DATABASE_URL. Used by dry runs that never open a connection.
func LoadWithoutDatabase() (*Config, error) {
	leagueIDs, err := envIntList("SEED_LEAGUE_IDS", DefaultLeagueIDs)
	if err != nil {
		return nil, fmt.Errorf("parse SEED_LEAGUE_IDS: %w", err)
	}

	scheme := strings.ToLower(envOr("TRANSFER_ID_SCHEME", IDSchemeFNV64))
	if scheme != IDSchemeFNV64 && scheme != IDSchemeLegacy32 {
		return nil, fmt.Errorf("invalid TRANSFER_ID_SCHEME %q: valid values are %s, %s", scheme, IDSchemeFNV64, IDSchemeLegacy32)
	}

	fallback := strings.ToUpper(envOr("FALLBACK_COUNTRY_CODE", DefaultFallbackCountry))
	if len(fallback) != 2 {
		return nil, fmt.Errorf("FALLBACK_COUNTRY_CODE must be two letters, got %q", fallback)
	}

	cfg := &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 4),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		DBCallTimeout:  envDuration("DB_CALL_TIMEOUT", 10*time.Second),

		APIFootballKey:        envOr("APIFOOTBALL_KEY", ""),
		APIFootballBaseURL:    envOr("APIFOOTBALL_BASE_URL", "https://v3.football.api-sports.io"),
		APIFootballRPM:        envInt("APIFOOTBALL_REQUESTS_PER_MINUTE", 30),
		APIFootballMaxRetries: envInt("APIFOOTBALL_MAX_RETRIES", 2),
		APIFootballTimeout:    envDuration("APIFOOTBALL_TIMEOUT", 20*time.Second),

		SeedLeagueIDs: leagueIDs,
		SeedSeason:    envInt("SEED_SEASON", 2024),

		TransfersCSVPath:    envOr("TRANSFERS_CSV_PATH", DefaultCSVPath),
		TransferIDScheme:    scheme,
		FallbackCountryCode: fallback,
		RunTimeout:          envDuration("INGEST_RUN_TIMEOUT", 30*time.Minute),

		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFormat:   envOr("LOG_FORMAT", "console"),
		MetricsFile: envOr("METRICS_FILE", ""),
	}

	if cfg.APIFootballRPM <= 0 {
		return nil, fmt.Errorf("APIFOOTBALL_REQUESTS_PER_MINUTE must be > 0")
	}
	if cfg.APIFootballMaxRetries < 0 {
		return nil, fmt.Errorf("APIFOOTBALL_MAX_RETRIES must be >= 0")
	}
	if cfg.RunTimeout <= 0 || cfg.DBCallTimeout <= 0 || cfg.APIFootballTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0")
	}
	return cfg, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envIntList(key string, fallback []int) ([]int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return append([]int(nil), fallback...), nil
	}
	parts := strings.Split(v, ",")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", trimmed, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("id must be > 0, got %d", n)
		}
		result = append(result, n)
	}
	if len(result) == 0 {
		return append([]int(nil), fallback...), nil
	}
	return result, nil
}
