package ingest

import (
	"context"
	"time"

	"github.com/fortuna/rinkscout/internal/locate"
	"github.com/fortuna/rinkscout/internal/page/pagetest"
	"github.com/fortuna/rinkscout/internal/retry"
)

const (
	testSeason = "2025-2026"
	testOrigin = "https://x.test"
)

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseURL = testOrigin
	cfg.Retry = retry.PageLoad()
	return cfg
}

func testLocator() *locate.Locator {
	return locate.New(locate.DefaultCatalog(testSeason), nil)
}

func newFakeDriver() *pagetest.Driver {
	return pagetest.New()
}
