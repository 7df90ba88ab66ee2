package reconciliation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/platform/logging"
)

var tc = TeamContext{Team: "Hawks", League: "NA3HL", Season: "2025-2026"}

func TestCombineMatchesByNormalizedName(t *testing.T) {
	roster := []domain.RosterPlayer{
		{Name: "Alex", Jersey: "12", Position: "F", Age: 17},
		{Name: "Dana Reed", Jersey: "4", Position: "F"},
		{Name: "Pat Long", Jersey: "6", Position: "LW"},
	}
	stats := []domain.StatsPlayer{
		{Name: "ALEX ", StatLine: domain.StatLine{Games: 10, Goals: 5, Assists: 3, Points: 8, PIM: 2}},
		{Name: "Dana Reed (D)", Position: "D", StatLine: domain.StatLine{Games: 3, Goals: 1, Assists: 1, Points: 2}},
		{Name: "Sam Extra (RW)", Position: "RW", StatLine: domain.StatLine{Games: 1, Points: 1}},
	}

	got := NewEngine(nil).Combine(roster, stats, tc)

	want := []domain.Player{
		{
			RosterPlayer: domain.RosterPlayer{Name: "Alex", Jersey: "12", Position: "F", Age: 17},
			StatLine:     domain.StatLine{Games: 10, Goals: 5, Assists: 3, Points: 8, PIM: 2},
			Season:       "2025-2026", League: "NA3HL", PPG: 0.8,
		},
		{
			RosterPlayer: domain.RosterPlayer{Name: "Dana Reed", Jersey: "4", Position: "D"},
			StatLine:     domain.StatLine{Games: 3, Goals: 1, Assists: 1, Points: 2},
			Season:       "2025-2026", League: "NA3HL", PPG: 0.67,
		},
		{
			RosterPlayer: domain.RosterPlayer{Name: "Pat Long", Jersey: "6", Position: "LW"},
			Season:       "2025-2026", League: "NA3HL",
		},
		{
			RosterPlayer: domain.RosterPlayer{Name: "Sam Extra", Position: "RW"},
			StatLine:     domain.StatLine{Games: 1, Points: 1},
			Season:       "2025-2026", League: "NA3HL", PPG: 1,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Combine() mismatch (-want +got):\n%s", diff)
	}
}

func TestCombineLengthLaw(t *testing.T) {
	testCases := []struct {
		description string
		roster      []string
		stats       []string
		matched     int
	}{
		{"empty", nil, nil, 0},
		{"roster only", []string{"Ann Ames", "Ben Burr"}, nil, 0},
		{"stats only", nil, []string{"Ann Ames"}, 0},
		{"all matched", []string{"Ann Ames", "Ben Burr"}, []string{"ben burr", "ANN AMES"}, 2},
		{"duplicate roster names consume one stats row each", []string{"Ann Ames", "Ann Ames"}, []string{"Ann Ames"}, 1},
		{"duplicate stats names", []string{"Ann Ames"}, []string{"Ann Ames", "Ann Ames"}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			roster := make([]domain.RosterPlayer, len(tc.roster))
			for i, n := range tc.roster {
				roster[i] = domain.RosterPlayer{Name: n}
			}
			stats := make([]domain.StatsPlayer, len(tc.stats))
			for i, n := range tc.stats {
				stats[i] = domain.StatsPlayer{Name: n}
			}

			engine := NewEngine(nil)
			got := engine.Combine(roster, stats, TeamContext{})

			assert.Len(t, got, len(roster)+len(stats)-tc.matched)
			assert.Equal(t, tc.matched, engine.GetMetrics().Matched)
		})
	}
}

func TestCombineLogsNearMisses(t *testing.T) {
	core, logs := observer.New(logging.LevelWarn)
	engine := NewEngine(logging.FromZap(zap.New(core)))

	got := engine.Combine(
		[]domain.RosterPlayer{{Name: "Jonathan Smithe"}},
		[]domain.StatsPlayer{{Name: "Jonathon Smithe", StatLine: domain.StatLine{Games: 2, Points: 1}}},
		tc,
	)

	require.Len(t, got, 2)
	assert.Equal(t, 1, engine.GetMetrics().NearMisses)
	entries := logs.FilterMessage("probable name drift between roster and stats").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Jonathan Smithe", entries[0].ContextMap()["roster_name"])
}

func TestNamesMatch(t *testing.T) {
	assert.True(t, NamesMatch("Smith (D)", " smith"))
	assert.False(t, NamesMatch("Smith", "Smyth"))
}
