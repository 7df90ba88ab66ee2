package ingest

import (
	"context"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/locate"
	"github.com/fortuna/rinkscout/internal/page"
	"github.com/fortuna/rinkscout/internal/parse"
)

// RosterColumns locates each roster field inside a player's table row. A
// field is the Index-th match of its selector (0-based).
type RosterColumns struct {
	Jersey    Cell
	Age       Cell
	BirthYear Cell
	Hometown  Cell
	Height    Cell
	Weight    Cell
	Position  Cell
	Shoots    Cell
}

type Cell struct {
	Query string
	Index int
}

func (c Cell) text(row page.Element) string {
	if c.Query == "" {
		return ""
	}
	found := row.Find(c.Query)
	if c.Index < 0 || c.Index >= len(found) {
		return ""
	}
	return found[c.Index].Text()
}

const (
	rowCell          = "td[class*='SortTable_trow__T6wLH"
	rightCell        = rowCell + " SortTable_right__s2qUT']"
	hideMobileCell   = rowCell + " SortTable_hideMobile__X1I3z']"
	leftCell         = rowCell + " SortTable_left__VX4mw']"
	hideMobileLeft   = rowCell + " SortTable_hideMobile__X1I3z SortTable_left__VX4mw']"
	hometownLinkCell = "td[class='SortTable_trow__T6wLH SortTable_hideMobile__X1I3z SortTable_left__VX4mw'] > a[class*='TextLink_link__RhSiC']"
)

// DefaultRosterColumns matches the current roster table markup.
func DefaultRosterColumns() RosterColumns {
	return RosterColumns{
		Jersey:    Cell{Query: rightCell},
		Age:       Cell{Query: hideMobileCell, Index: 1},
		BirthYear: Cell{Query: leftCell + " span"},
		Hometown:  Cell{Query: hometownLinkCell},
		Height:    Cell{Query: hideMobileCell, Index: 3},
		Weight:    Cell{Query: hideMobileCell, Index: 4},
		Position:  Cell{Query: hideMobileLeft, Index: 1},
		Shoots:    Cell{Query: hideMobileCell, Index: 5},
	}
}

// RosterProgress receives the players accepted so far and the number of
// player links located on the page.
type RosterProgress func(found []domain.RosterPlayer, total int)

// RosterExtractor reads a team's roster table.
type RosterExtractor struct {
	*base
	columns RosterColumns
}

func NewRosterExtractor(driver page.Driver, locator *locate.Locator, cfg Config, opts ...Option) *RosterExtractor {
	return &RosterExtractor{
		base:    newBase(driver, locator, cfg, "roster", opts...),
		columns: DefaultRosterColumns(),
	}
}

// ExtractRoster returns the skaters listed on team's roster page. Goaltenders,
// captaincy fragments and rows failing the name check are dropped.
func (r *RosterExtractor) ExtractRoster(ctx context.Context, team domain.Team, season string, onProgress RosterProgress) ([]domain.RosterPlayer, error) {
	log := r.log.With("team", team.Name, "team_id", team.ID)

	if err := r.driver.Navigate(ctx, team.URL, r.cfg.PageLoadTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error("roster page load failed", "url", team.URL, "err", err)
		return nil, nil
	}
	if err := r.settle(ctx, r.cfg.SettleExtra); err != nil {
		return nil, err
	}

	result := r.locator.Locate(ctx, r.driver, locate.KindRosterPlayers)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	total := len(result.Elements)
	if total == 0 {
		log.Warn("no roster players found")
		return nil, nil
	}
	log.Info("roster player links located", "strategy", result.Strategy, "count", total)

	seasonYear := parse.SeasonStartYear(season)
	players := make([]domain.RosterPlayer, 0, total)
	reported := 0
	report := func() {
		if onProgress == nil || len(players) == reported {
			return
		}
		reported = len(players)
		onProgress(append([]domain.RosterPlayer(nil), players...), total)
	}
	for i, link := range result.Elements {
		player, ok := r.readPlayer(link, seasonYear)
		if !ok {
			continue
		}
		log.Debug("roster player", "n", i+1, "of", total, "name", player.Name, "position", player.Position)
		players = append(players, player)

		if len(players)%5 == 0 {
			report()
		}
	}
	report()

	log.Info("roster extracted", "players", len(players))
	return players, nil
}

func (r *RosterExtractor) readPlayer(link page.Element, seasonYear int) (domain.RosterPlayer, bool) {
	raw := link.Text()
	if parse.IsCaptainMarker(raw) {
		r.log.Debug("skipping captaincy marker", "raw", raw)
		return domain.RosterPlayer{}, false
	}

	name := parse.StripCaptainSuffix(raw)
	if parse.IsCaptainMarker(name) {
		r.log.Debug("skipping name left empty by cleanup", "raw", raw)
		return domain.RosterPlayer{}, false
	}

	bare, inlinePosition, hasInline := parse.SplitInlinePosition(name)
	if hasInline {
		if parse.IsExcludedPosition(inlinePosition) {
			r.log.Debug("skipping excluded position", "raw", raw, "position", inlinePosition)
			return domain.RosterPlayer{}, false
		}
		name = bare
	}

	if parse.IsCaptainMarker(name) || !parse.IsPlausiblePlayerName(name) {
		r.log.Debug("skipping implausible name", "raw", raw, "name", name)
		return domain.RosterPlayer{}, false
	}

	row, ok := link.Closest("tr")
	if !ok {
		r.log.Debug("player link outside a table row", "name", name)
		return domain.RosterPlayer{}, false
	}

	cols := r.columns
	position := cols.Position.text(row)
	if inlinePosition != "" {
		position = inlinePosition
	}
	if parse.IsExcludedPosition(position) {
		r.log.Debug("skipping excluded position", "name", name, "position", position)
		return domain.RosterPlayer{}, false
	}

	age := parse.ParseAge(cols.Age.text(row))
	birthYear := parse.ParseInt(cols.BirthYear.text(row))
	if birthYear == 0 {
		birthYear = parse.BirthYear(age, seasonYear)
	}

	profile, _ := link.Attr("href")
	return domain.RosterPlayer{
		Name:       name,
		Jersey:     cols.Jersey.text(row),
		Position:   position,
		Shoots:     parse.NormalizeShoots(cols.Shoots.text(row)),
		Age:        age,
		BirthYear:  birthYear,
		Height:     cols.Height.text(row),
		Weight:     cols.Weight.text(row),
		Hometown:   cols.Hometown.text(row),
		ProfileURL: profile,
	}, true
}
