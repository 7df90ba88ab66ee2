// Package ingest pulls teams, rosters and statistics off rendered pages.
//
// Every extractor degrades instead of failing: navigation errors, missing
// tables and malformed rows are logged and produce fewer (or zero) records.
// The only error an extractor returns is the context's, so callers can tell
// cancellation apart from an empty page.
package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fortuna/rinkscout/internal/locate"
	"github.com/fortuna/rinkscout/internal/page"
	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/retry"
)

const DefaultBaseURL = "https://www.eliteprospects.com"

type Config struct {
	// BaseURL is used for team URLs when the league URL is relative.
	BaseURL string
	// Delay is the render-settle wait after each page load.
	Delay time.Duration
	// SettleExtra is added to Delay on roster pages.
	SettleExtra     time.Duration
	PageLoadTimeout time.Duration
	// DiagnosticsDir receives page captures when discovery finds nothing.
	// Empty disables captures.
	DiagnosticsDir string
	Retry          retry.Policy
}

func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		Delay:           3 * time.Second,
		SettleExtra:     2 * time.Second,
		PageLoadTimeout: page.DefaultPageLoadTimeout,
		Retry:           retry.PageLoad(),
	}
}

type Option func(*base)

// WithSleep replaces every wait (settle delays and retry pauses).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(b *base) { b.sleep = fn }
}

func WithLogger(log *logging.Logger) Option {
	return func(b *base) {
		if log != nil {
			b.log = log
		}
	}
}

// base holds what every extractor shares.
type base struct {
	driver  page.Driver
	locator *locate.Locator
	cfg     Config
	delay   atomic.Int64
	sleep   func(ctx context.Context, d time.Duration) error
	log     *logging.Logger
}

func newBase(driver page.Driver, locator *locate.Locator, cfg Config, component string, opts ...Option) *base {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = retry.PageLoad()
	}
	b := &base{
		driver:  driver,
		locator: locator,
		cfg:     cfg,
		sleep:   retry.Sleep,
		log:     logging.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("component", component)
	b.cfg.Retry.Sleep = b.sleep
	b.delay.Store(int64(cfg.Delay))
	return b
}

// SetDelay changes the render-settle wait for subsequent page loads.
func (b *base) SetDelay(d time.Duration) {
	if d >= 0 {
		b.delay.Store(int64(d))
	}
}

func (b *base) Delay() time.Duration {
	return time.Duration(b.delay.Load())
}

func (b *base) settle(ctx context.Context, extra time.Duration) error {
	return b.sleep(ctx, b.Delay()+extra)
}
