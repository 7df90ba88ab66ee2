package ingest

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/locate"
	"github.com/fortuna/rinkscout/internal/page"
	"github.com/fortuna/rinkscout/internal/parse"
	"github.com/fortuna/rinkscout/internal/retry"
)

var errLeagueNotFound = errors.New("league page not found")

// Discovery lists the teams of a league season.
type Discovery struct {
	*base
}

func NewDiscovery(driver page.Driver, locator *locate.Locator, cfg Config, opts ...Option) *Discovery {
	return &Discovery{base: newBase(driver, locator, cfg, "discovery", opts...)}
}

// DiscoverTeams loads the league page for season and returns its teams in
// first-seen order, deduplicated by ID. A missing page, a redirect to an
// error page or an unrecognized layout all yield an empty list.
func (d *Discovery) DiscoverTeams(ctx context.Context, leagueURL, season string) ([]domain.Team, error) {
	target := parse.WithSeason(leagueURL, season)
	log := d.log.With("league_url", target)

	err := d.cfg.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			log.Info("retrying league page", "attempt", attempt, "max", d.cfg.Retry.Attempts)
		}
		if err := d.driver.Navigate(ctx, target, d.cfg.PageLoadTimeout); err != nil {
			log.Warn("league page load failed", "attempt", attempt, "err", err)
			return err
		}
		return d.checkLanding(ctx, target)
	})
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, errLeagueNotFound):
		log.Warn("league/season combination does not exist")
		return nil, nil
	case err != nil:
		log.Error("league page unavailable, giving up", "err", err)
		return nil, nil
	}

	if err := d.settle(ctx, 0); err != nil {
		return nil, err
	}

	result := d.locator.Locate(ctx, d.driver, locate.KindTeamLinks)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !result.Found() {
		log.Warn("no team links found")
		d.captureDiagnostics(ctx, "league_page_"+parse.LeagueSlug(target))
		return nil, nil
	}
	log.Info("team links located", "strategy", result.Strategy, "count", len(result.Elements))

	teams := d.teamsFromLinks(result.Elements, target, season)
	log.Info("teams discovered", "count", len(teams))
	return teams, nil
}

// checkLanding inspects where navigation ended up. Error pages are permanent.
func (d *Discovery) checkLanding(ctx context.Context, requested string) error {
	current, err := d.driver.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if current != requested {
		d.log.Warn("redirect detected", "requested", requested, "actual", current)
		lower := strings.ToLower(current)
		if strings.Contains(lower, "404") || strings.Contains(lower, "not-found") {
			return retry.Permanent(errLeagueNotFound)
		}
	}

	title, err := d.driver.Title(ctx)
	if err != nil {
		d.log.Debug("page title unavailable", "err", err)
		return nil
	}
	if strings.Contains(title, "404") || strings.Contains(title, "Not Found") {
		d.log.Warn("page title indicates error", "title", title)
		return retry.Permanent(errLeagueNotFound)
	}
	return nil
}

func (d *Discovery) teamsFromLinks(links []page.Element, leagueURL, season string) []domain.Team {
	league := parse.LeagueName(leagueURL)
	origin := parse.Origin(leagueURL, d.cfg.BaseURL)

	seen := make(map[string]struct{}, len(links))
	teams := make([]domain.Team, 0, len(links))
	for _, link := range links {
		href, _ := link.Attr("href")
		name := link.Text()
		if href == "" || name == "" {
			continue
		}

		parsed, ok := parse.ParseTeamLink(href)
		if !ok {
			d.log.Debug("skipping malformed team link", "href", href)
			continue
		}
		if _, dup := seen[parsed.ID]; dup {
			continue
		}
		if parsed.Slug == "" || parsed.Slug == season {
			parsed.Slug = parse.SlugFromName(name)
		}

		seen[parsed.ID] = struct{}{}
		teams = append(teams, domain.Team{
			ID:     parsed.ID,
			Name:   name,
			URL:    parse.TeamURL(origin, parsed, season),
			League: league,
		})
	}
	return teams
}
