// Package config reads service settings from the environment.
package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"github.com/fortuna/rinkscout/internal/ingest"
	"github.com/fortuna/rinkscout/internal/page"
	"github.com/fortuna/rinkscout/internal/parse"
	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/scheduler"
	"github.com/fortuna/rinkscout/internal/scraper"
	"github.com/fortuna/rinkscout/internal/session"
)

const (
	DriverChrome = "chrome"
	DriverHTTP   = "http"
)

type Config struct {
	RESTPort    string
	WSPort      string
	DatabaseURL string
	RedisURL    string
	CORSOrigins []string

	Driver          string
	Headless        bool
	BaseURL         string
	DefaultSeason   string
	ScrapeDelay     time.Duration
	SettleExtra     time.Duration
	BatchSize       int
	MaxTeams        int
	PageLoadTimeout time.Duration
	WaitTimeout     time.Duration
	DiagnosticsDir  string

	DataDir      string
	CacheTTL     time.Duration
	SweepEnabled bool
	SweepWeekday time.Weekday
	SweepHour    int
	LeaguesFile  string

	LogLevel string
}

// LoadDotEnv loads .env files when present. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

// Load reads the environment and validates it.
func Load() (Config, error) {
	var p parser
	cfg := Config{
		RESTPort:    getEnv("REST_PORT", "8080"),
		WSPort:      getEnv("WS_PORT", "8081"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		Driver:          strings.ToLower(getEnv("DRIVER", DriverChrome)),
		Headless:        p.bool("HEADLESS", true),
		BaseURL:         getEnv("BASE_URL", ingest.DefaultBaseURL),
		DefaultSeason:   getEnv("DEFAULT_SEASON", "2025-2026"),
		ScrapeDelay:     p.duration("SCRAPE_DELAY", 3*time.Second),
		SettleExtra:     p.duration("SETTLE_EXTRA", 2*time.Second),
		BatchSize:       p.int("BATCH_SIZE", 5),
		MaxTeams:        p.int("MAX_TEAMS", 0),
		PageLoadTimeout: p.duration("PAGE_LOAD_TIMEOUT", 30*time.Second),
		WaitTimeout:     p.duration("WAIT_TIMEOUT", 15*time.Second),
		DiagnosticsDir:  os.Getenv("DIAGNOSTICS_DIR"),

		DataDir:      getEnv("DATA_DIR", "./data"),
		CacheTTL:     p.duration("CACHE_TTL", 168*time.Hour),
		SweepEnabled: p.bool("SWEEP_ENABLED", false),
		SweepHour:    p.int("SWEEP_HOUR", 3),
		LeaguesFile:  os.Getenv("LEAGUES_FILE"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	weekday, err := scheduler.ParseWeekday(getEnv("SWEEP_WEEKDAY", "sunday"))
	if err != nil {
		p.fail("SWEEP_WEEKDAY", err)
	}
	cfg.SweepWeekday = weekday

	if p.err != nil {
		return Config{}, p.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Driver != DriverChrome && c.Driver != DriverHTTP:
		return errors.Newf("DRIVER must be %q or %q, got %q", DriverChrome, DriverHTTP, c.Driver)
	case !parse.IsSeason(c.DefaultSeason):
		return errors.Newf("DEFAULT_SEASON %q is not a YYYY-YYYY season", c.DefaultSeason)
	case c.ScrapeDelay <= 0, c.SettleExtra <= 0, c.PageLoadTimeout <= 0, c.WaitTimeout <= 0, c.CacheTTL <= 0:
		return errors.New("durations must be positive")
	case c.BatchSize < 0, c.MaxTeams < 0:
		return errors.New("BATCH_SIZE and MAX_TEAMS must be >= 0")
	case c.SweepHour < 0 || c.SweepHour > 23:
		return errors.Newf("SWEEP_HOUR must be 0-23, got %d", c.SweepHour)
	}
	return nil
}

func (c Config) Ingest() ingest.Config {
	cfg := ingest.DefaultConfig()
	cfg.BaseURL = c.BaseURL
	cfg.Delay = c.ScrapeDelay
	cfg.SettleExtra = c.SettleExtra
	cfg.PageLoadTimeout = c.PageLoadTimeout
	cfg.DiagnosticsDir = c.DiagnosticsDir
	return cfg
}

func (c Config) Scraper() scraper.Config {
	cfg := scraper.DefaultConfig()
	cfg.Delay = c.ScrapeDelay
	if c.BatchSize > 0 {
		cfg.BatchSize = c.BatchSize
	}
	cfg.MaxTeams = c.MaxTeams
	return cfg
}

func (c Config) Scheduler() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.Season = c.DefaultSeason
	cfg.Weekday = c.SweepWeekday
	cfg.Hour = c.SweepHour
	cfg.DataDir = c.DataDir
	return cfg
}

// DriverFactory starts the configured page driver.
func (c Config) DriverFactory(log *logging.Logger) session.DriverFactory {
	return func(context.Context) (page.Driver, error) {
		if c.Driver == DriverHTTP {
			return page.NewHTTPDriver(page.HTTPOptions{PageLoadTimeout: c.PageLoadTimeout, Logger: log}), nil
		}
		driver, err := page.NewChromeDriver(page.ChromeOptions{
			Headless:        c.Headless,
			PageLoadTimeout: c.PageLoadTimeout,
			WaitTimeout:     c.WaitTimeout,
			Logger:          log,
		})
		if err != nil {
			return nil, err
		}
		return driver, nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser keeps the first conversion error.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = errors.Wrapf(err, "invalid %s", key)
	}
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return d
}

func (p *parser) int(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}
