// Package locate finds page elements through ordered chains of fallback
// strategies. The first strategy that yields anything wins; running out of
// strategies is a normal, typed outcome rather than an error.
package locate

import (
	"context"
	"strings"

	"github.com/fortuna/rinkscout/internal/page"
	"github.com/fortuna/rinkscout/internal/platform/logging"
)

// Kind names a family of elements the scraper needs to find.
type Kind string

const (
	KindTeamLinks     Kind = "team_links"
	KindRosterPlayers Kind = "roster_players"
	KindStatsTable    Kind = "stats_table"
	KindStatsRows     Kind = "stats_rows"
)

// Strategy is one way of finding a Kind.
type Strategy struct {
	Name string
	Find func(ctx context.Context, finder page.Finder) ([]page.Element, error)
}

// Query is a strategy that runs a single CSS selector.
func Query(name, css string) Strategy {
	return Strategy{
		Name: name,
		Find: func(ctx context.Context, finder page.Finder) ([]page.Element, error) {
			return finder.FindAll(ctx, css)
		},
	}
}

// FilteredQuery runs css and keeps only the elements accepted by keep.
func FilteredQuery(name, css string, keep func(page.Element) bool) Strategy {
	return Strategy{
		Name: name,
		Find: func(ctx context.Context, finder page.Finder) ([]page.Element, error) {
			found, err := finder.FindAll(ctx, css)
			if err != nil {
				return nil, err
			}
			out := found[:0:0]
			for _, el := range found {
				if keep(el) {
					out = append(out, el)
				}
			}
			return out, nil
		},
	}
}

// Result carries the elements found and the strategy that produced them.
// Strategy is empty when every strategy came back empty.
type Result struct {
	Elements []page.Element
	Strategy string
}

func (r Result) Found() bool {
	return r.Strategy != ""
}

// Catalog maps each Kind to its ordered strategies.
type Catalog map[Kind][]Strategy

type Locator struct {
	catalog Catalog
	log     *logging.Logger
}

func New(catalog Catalog, log *logging.Logger) *Locator {
	if log == nil {
		log = logging.Default()
	}
	return &Locator{catalog: catalog, log: log}
}

// Locate runs the strategies registered for kind against finder.
func (l *Locator) Locate(ctx context.Context, finder page.Finder, kind Kind) Result {
	return l.run(ctx, finder, string(kind), l.catalog[kind])
}

// Run evaluates an ad hoc chain of strategies.
func (l *Locator) Run(ctx context.Context, finder page.Finder, strategies []Strategy) Result {
	return l.run(ctx, finder, "adhoc", strategies)
}

func (l *Locator) run(ctx context.Context, finder page.Finder, kind string, strategies []Strategy) Result {
	for i, strategy := range strategies {
		if ctx.Err() != nil {
			return Result{}
		}

		found, err := strategy.Find(ctx, finder)
		if err != nil {
			l.log.Warn("locator strategy failed", "kind", kind, "strategy", strategy.Name, "err", err)
			continue
		}
		if len(found) == 0 {
			l.log.Debug("locator strategy empty", "kind", kind, "strategy", strategy.Name)
			continue
		}

		l.log.Debug("locator strategy matched",
			"kind", kind, "strategy", strategy.Name, "position", i+1, "count", len(found))
		return Result{Elements: found, Strategy: strategy.Name}
	}
	return Result{}
}

var teamLinkExclusions = []string{"/stats", "/transactions", "/schedule"}

// DefaultCatalog returns the strategies tuned for the current site layout.
// season narrows the last-resort team link scan.
func DefaultCatalog(season string) Catalog {
	const teamAnchor = "ul > li > span > a[href*='/team/']"

	return Catalog{
		KindTeamLinks: {
			Query("section-div3-list", "section > div:nth-of-type(3) > "+teamAnchor),
			Query("section-div2-list", "section > div:nth-of-type(2) > "+teamAnchor),
			Query("section-any-list", "section "+teamAnchor),
			Query("layout-content-list", "div[class*='Layout_content'] section "+teamAnchor),
			FilteredQuery("season-team-anchor",
				"a[href*='/team/'][href*='/"+season+"']",
				func(el page.Element) bool {
					href, _ := el.Attr("href")
					for _, excluded := range teamLinkExclusions {
						if strings.Contains(href, excluded) {
							return false
						}
					}
					return true
				}),
		},
		KindRosterPlayers: {
			Query("roster-player-link", "div[class='Roster_player__e6EbP'] > a[class*='TextLink_link__RhSiC']"),
			Query("roster-player-prefix", "div[class*='Roster_player'] > a[class*='TextLink_link']"),
			Query("table-player-link", "tr a[href*='/player/']"),
		},
		KindStatsTable: {
			Query("section-table", "section table"),
			Query("main-table", "main table"),
			Query("any-table", "table"),
		},
		KindStatsRows: {
			Query("tbody-rows", "tbody > tr"),
			Query("all-rows", "tr"),
		},
	}
}
