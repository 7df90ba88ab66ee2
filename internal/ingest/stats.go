package ingest

import (
	"context"
	"strings"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/locate"
	"github.com/fortuna/rinkscout/internal/page"
	"github.com/fortuna/rinkscout/internal/parse"
)

const (
	minStatsCells  = 6
	nameCellWindow = 4
)

// ColumnStrategy maps the numeric cells of a stats row onto a stat line.
type ColumnStrategy interface {
	Assign(values []int) domain.StatLine
}

// ColumnStrategyFunc adapts a function to ColumnStrategy.
type ColumnStrategyFunc func(values []int) domain.StatLine

func (f ColumnStrategyFunc) Assign(values []int) domain.StatLine { return f(values) }

// RightAlignedOrder reads right-aligned numeric cells as games, goals,
// assists, points, pim. Four values leave pim at zero; fewer leave every
// stat at zero. This is a layout heuristic: an extra numeric column before
// games shifts every value.
var RightAlignedOrder ColumnStrategy = ColumnStrategyFunc(func(values []int) domain.StatLine {
	var line domain.StatLine
	if len(values) < 4 {
		return line
	}
	line.Games, line.Goals, line.Assists, line.Points = values[0], values[1], values[2], values[3]
	if len(values) >= 5 {
		line.PIM = values[4]
	}
	return line
})

// StatsExtractor reads a team's statistics tab.
type StatsExtractor struct {
	*base
	columns ColumnStrategy
}

func NewStatsExtractor(driver page.Driver, locator *locate.Locator, cfg Config, opts ...Option) *StatsExtractor {
	return &StatsExtractor{
		base:    newBase(driver, locator, cfg, "stats", opts...),
		columns: RightAlignedOrder,
	}
}

// WithColumns swaps the column mapping heuristic.
func (s *StatsExtractor) WithColumns(columns ColumnStrategy) *StatsExtractor {
	if columns != nil {
		s.columns = columns
	}
	return s
}

// ExtractStats returns one record per admissible row of the team's stats table.
func (s *StatsExtractor) ExtractStats(ctx context.Context, team domain.Team, season string) ([]domain.StatsPlayer, error) {
	log := s.log.With("team", team.Name, "team_id", team.ID)
	statsURL := parse.StatsURL(team.URL)

	err := s.cfg.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			log.Info("retrying stats page", "attempt", attempt, "max", s.cfg.Retry.Attempts)
		}
		if err := s.driver.Navigate(ctx, statsURL, s.cfg.PageLoadTimeout); err != nil {
			log.Warn("stats page load failed", "attempt", attempt, "err", err)
			return err
		}
		return nil
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		log.Error("stats page unavailable, continuing without stats", "err", err)
		return nil, nil
	}
	if err := s.settle(ctx, s.cfg.SettleExtra); err != nil {
		return nil, err
	}

	table := s.locator.Locate(ctx, s.driver, locate.KindStatsTable)
	if !table.Found() {
		log.Warn("stats table not found")
		return nil, nil
	}
	rows := s.locator.Locate(ctx, page.Within(table.Elements[0]), locate.KindStatsRows)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	stats := make([]domain.StatsPlayer, 0, len(rows.Elements))
	for _, row := range rows.Elements {
		if player, ok := s.readRow(row); ok {
			stats = append(stats, player)
		}
	}
	if len(stats) == 0 {
		log.Warn("no valid stats rows", "rows", len(rows.Elements))
		return nil, nil
	}

	log.Info("stats extracted", "players", len(stats))
	return stats, nil
}

func (s *StatsExtractor) readRow(row page.Element) (domain.StatsPlayer, bool) {
	cells := row.Find("td")
	if len(cells) < minStatsCells {
		return domain.StatsPlayer{}, false
	}

	var name, position string
	for _, cell := range cells[:nameCellWindow] {
		text := cell.Text()
		if !parse.IsPlausiblePlayerName(text) {
			continue
		}
		name = text
		if bare, pos, ok := parse.SplitInlinePosition(text); ok && len([]rune(bare)) >= 3 {
			name, position = bare, pos
		}
		break
	}
	if name == "" {
		return domain.StatsPlayer{}, false
	}
	if position != "" && parse.IsExcludedPosition(position) {
		s.log.Debug("skipping excluded position in stats", "name", name, "position", position)
		return domain.StatsPlayer{}, false
	}

	var values []int
	for _, cell := range cells {
		class, _ := cell.Attr("class")
		if !strings.Contains(strings.ToLower(class), "right") {
			continue
		}
		if n, ok := parse.ParseStat(cell.Text()); ok {
			values = append(values, n)
		}
	}

	return domain.StatsPlayer{
		Name:     name,
		Position: position,
		StatLine: s.columns.Assign(values),
	}, true
}
