// Package reconciliation merges a team's roster and statistics listings into
// one player list.
package reconciliation

import (
	"sync"
	"time"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/parse"
	"github.com/fortuna/rinkscout/internal/platform/logging"
)

// TeamContext carries the labels stamped onto every combined player.
type TeamContext struct {
	Team   string
	League string
	Season string
}

// Metrics tracks reconciliation statistics across teams.
type Metrics struct {
	TeamsCombined      int       `json:"teams_combined"`
	Matched            int       `json:"matched"`
	RosterOnly         int       `json:"roster_only"`
	StatsOnly          int       `json:"stats_only"`
	NearMisses         int       `json:"near_misses"`
	LastReconciliation time.Time `json:"last_reconciliation"`
}

// Engine pairs roster and stats records by normalized name.
type Engine struct {
	matcher *Matcher
	log     *logging.Logger

	mu      sync.Mutex
	metrics Metrics
}

func NewEngine(log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Default()
	}
	return &Engine{
		matcher: NewMatcher(DefaultNearMissThreshold),
		log:     log.With("component", "reconciliation"),
	}
}

// Combine returns one player per roster record, in roster order, followed by
// one player per stats record that no roster record claimed. Each stats record
// is used at most once (greedy, first fit over roster order), so
//
//	len(out) == len(roster) + len(stats) - matched
func (e *Engine) Combine(roster []domain.RosterPlayer, stats []domain.StatsPlayer, tc TeamContext) []domain.Player {
	consumed := make([]bool, len(stats))
	combined := make([]domain.Player, 0, len(roster)+len(stats))
	var unmatchedRoster []int
	matched := 0

	for ri, rp := range roster {
		player := domain.Player{RosterPlayer: rp, Season: tc.Season, League: tc.League}

		si := e.matcher.FirstMatch(rp.Name, stats, consumed)
		if si < 0 {
			unmatchedRoster = append(unmatchedRoster, ri)
			combined = append(combined, player.WithStats(domain.StatLine{}))
			continue
		}

		consumed[si] = true
		matched++
		sp := stats[si]
		if sp.Position != "" {
			player.Position = sp.Position
		}
		combined = append(combined, player.WithStats(sp.StatLine))
	}

	var unmatchedStats []int
	for si, sp := range stats {
		if consumed[si] {
			continue
		}
		unmatchedStats = append(unmatchedStats, si)
		player := domain.Player{
			RosterPlayer: domain.RosterPlayer{Name: parse.CleanName(sp.Name), Position: sp.Position},
			Season:       tc.Season,
			League:       tc.League,
		}
		combined = append(combined, player.WithStats(sp.StatLine))
	}

	misses := e.matcher.NearMisses(roster, unmatchedRoster, stats, unmatchedStats)
	for _, miss := range misses {
		e.log.Warn("probable name drift between roster and stats",
			"team", tc.Team, "roster_name", miss.RosterName, "stats_name", miss.StatsName,
			"similarity", miss.Similarity)
	}

	e.mu.Lock()
	e.metrics.TeamsCombined++
	e.metrics.Matched += matched
	e.metrics.RosterOnly += len(unmatchedRoster)
	e.metrics.StatsOnly += len(unmatchedStats)
	e.metrics.NearMisses += len(misses)
	e.metrics.LastReconciliation = time.Now()
	e.mu.Unlock()

	e.log.Debug("team combined",
		"team", tc.Team, "roster", len(roster), "stats", len(stats), "matched", matched, "players", len(combined))
	return combined
}

// GetMetrics returns a copy of the current metrics.
func (e *Engine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}
