package session

import (
	"context"
	"time"

	"github.com/fortuna/rinkscout/internal/ingest"
	"github.com/fortuna/rinkscout/internal/locate"
	"github.com/fortuna/rinkscout/internal/page"
	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/reconciliation"
	"github.com/fortuna/rinkscout/internal/scraper"
)

// Components configures the scraping pipeline built around each driver.
type Components struct {
	Ingest  ingest.Config
	Scraper scraper.Config
	Logger  *logging.Logger
	// Sleep overrides every wait in the pipeline. Nil uses real time.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Pipeline is the set of extractors and the orchestrator bound to one driver.
type Pipeline struct {
	driver       page.Driver
	components   Components
	engine       *reconciliation.Engine
	orchestrator *scraper.Orchestrator
}

func (c Components) build(driver page.Driver, season string) *Pipeline {
	locator := locate.New(locate.DefaultCatalog(season), c.Logger)
	ingestOpts := []ingest.Option{ingest.WithLogger(c.Logger)}
	scraperOpts := []scraper.Option{scraper.WithLogger(c.Logger)}
	if c.Sleep != nil {
		ingestOpts = append(ingestOpts, ingest.WithSleep(c.Sleep))
		scraperOpts = append(scraperOpts, scraper.WithSleep(c.Sleep))
	}

	engine := reconciliation.NewEngine(c.Logger)
	return &Pipeline{
		driver:     driver,
		components: c,
		engine:     engine,
		orchestrator: scraper.New(
			ingest.NewRosterExtractor(driver, locator, c.Ingest, ingestOpts...),
			ingest.NewStatsExtractor(driver, locator, c.Ingest, ingestOpts...),
			engine,
			c.Scraper,
			scraperOpts...,
		),
	}
}

// Discovery returns a team discoverer whose last-resort link scan targets season.
func (p *Pipeline) Discovery(season string) *ingest.Discovery {
	c := p.components
	opts := []ingest.Option{ingest.WithLogger(c.Logger)}
	if c.Sleep != nil {
		opts = append(opts, ingest.WithSleep(c.Sleep))
	}
	return ingest.NewDiscovery(p.driver, locate.New(locate.DefaultCatalog(season), c.Logger), c.Ingest, opts...)
}

func (p *Pipeline) Orchestrator() *scraper.Orchestrator {
	return p.orchestrator
}

func (p *Pipeline) Metrics() reconciliation.Metrics {
	return p.engine.GetMetrics()
}
