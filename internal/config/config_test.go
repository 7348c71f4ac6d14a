package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/transfers")
	t.Setenv("SEED_LEAGUE_IDS", "")
	t.Setenv("TRANSFERS_CSV_PATH", "")
	t.Setenv("TRANSFER_ID_SCHEME", "")
	t.Setenv("FALLBACK_COUNTRY_CODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultLeagueIDs, cfg.SeedLeagueIDs)
	assert.Equal(t, DefaultCSVPath, cfg.TransfersCSVPath)
	assert.Equal(t, IDSchemeFNV64, cfg.TransferIDScheme)
	assert.Equal(t, DefaultFallbackCountry, cfg.FallbackCountryCode)
	assert.Equal(t, 10*time.Second, cfg.DBCallTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/transfers")
	t.Setenv("SEED_LEAGUE_IDS", "39, 140")
	t.Setenv("TRANSFERS_CSV_PATH", "/tmp/winter.csv")
	t.Setenv("TRANSFER_ID_SCHEME", "LEGACY32")
	t.Setenv("FALLBACK_COUNTRY_CODE", "zz")
	t.Setenv("INGEST_RUN_TIMEOUT", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int{39, 140}, cfg.SeedLeagueIDs)
	assert.Equal(t, "/tmp/winter.csv", cfg.TransfersCSVPath)
	assert.Equal(t, IDSchemeLegacy32, cfg.TransferIDScheme)
	assert.Equal(t, "ZZ", cfg.FallbackCountryCode)
	assert.Equal(t, 5*time.Minute, cfg.RunTimeout)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad scheme":     {"TRANSFER_ID_SCHEME", "md5"},
		"bad league id":  {"SEED_LEAGUE_IDS", "39,abc"},
		"negative id":    {"SEED_LEAGUE_IDS", "-1"},
		"bad fallback":   {"FALLBACK_COUNTRY_CODE", "GBR"},
		"zero api rpm":   {"APIFOOTBALL_REQUESTS_PER_MINUTE", "0"},
		"negative retry": {"APIFOOTBALL_MAX_RETRIES", "-2"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost:5432/transfers")
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadWithoutDatabase_AllowsMissingURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadWithoutDatabase()
	require.NoError(t, err)
	assert.Empty(t, cfg.DatabaseURL)
}
