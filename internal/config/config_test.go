package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"REST_PORT", "DRIVER", "SCRAPE_DELAY", "BATCH_SIZE", "SWEEP_WEEKDAY", "DEFAULT_SEASON", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.RESTPort)
	assert.Equal(t, DriverChrome, cfg.Driver)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 3*time.Second, cfg.ScrapeDelay)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, time.Sunday, cfg.SweepWeekday)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 168*time.Hour, cfg.CacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DRIVER", "HTTP")
	t.Setenv("SCRAPE_DELAY", "5")
	t.Setenv("PAGE_LOAD_TIMEOUT", "45s")
	t.Setenv("MAX_TEAMS", "4")
	t.Setenv("SWEEP_WEEKDAY", "wed")
	t.Setenv("HEADLESS", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DEFAULT_SEASON", "2024-2025")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverHTTP, cfg.Driver)
	assert.Equal(t, 5*time.Second, cfg.ScrapeDelay)
	assert.Equal(t, 45*time.Second, cfg.PageLoadTimeout)
	assert.False(t, cfg.Headless)
	assert.Equal(t, time.Wednesday, cfg.SweepWeekday)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)

	assert.Equal(t, 4, cfg.Scraper().MaxTeams)
	assert.Equal(t, 5*time.Second, cfg.Ingest().Delay)
	assert.Equal(t, "2024-2025", cfg.Scheduler().Season)
	assert.Equal(t, time.Wednesday, cfg.Scheduler().Weekday)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"DRIVER":         "firefox",
		"SCRAPE_DELAY":   "soon",
		"BATCH_SIZE":     "-1",
		"HEADLESS":       "maybe",
		"SWEEP_WEEKDAY":  "funday",
		"SWEEP_HOUR":     "24",
		"DEFAULT_SEASON": "2025",
		"SETTLE_EXTRA":   "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RINKSCOUT_TEST_VALUE=from-file\n"), 0o644))
	t.Setenv("RINKSCOUT_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("RINKSCOUT_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("RINKSCOUT_TEST_VALUE"))
}
