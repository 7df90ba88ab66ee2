package store

import (
	"io/fs"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/rinkscout/internal/domain"
)

func TestRowsFromTeamCollapsesDuplicateNames(t *testing.T) {
	at := time.Date(2025, 10, 19, 3, 0, 0, 0, time.UTC)
	team := domain.TeamResult{
		ID: "42", Name: "Hawks", Season: "2025-2026", URL: "https://x.test/team/42/hawks/2025-2026",
		Players: []domain.Player{
			{RosterPlayer: domain.RosterPlayer{Name: "Alex A", Jersey: "9"}},
			{RosterPlayer: domain.RosterPlayer{Name: "Sam B", Jersey: "4"}},
			{RosterPlayer: domain.RosterPlayer{Name: "Alex A", Jersey: "19"}},
		},
	}

	teamRow, players := RowsFromTeam("NA3HL", team, at)

	assert.Equal(t, TeamRow{TeamID: "42", Season: "2025-2026", League: "NA3HL", Name: "Hawks", URL: team.URL, ScrapedAt: at}, teamRow)
	require.Len(t, players, 2)
	assert.Equal(t, "19", players[0].Jersey)
	assert.Equal(t, 0, players[0].Ordinal)
	assert.Equal(t, 1, players[1].Ordinal)
	assert.Equal(t, "NA3HL", players[1].League)
}

func TestTeamFromRowsRestoresResult(t *testing.T) {
	alex := domain.Player{
		RosterPlayer: domain.RosterPlayer{Name: "Alex A", Jersey: "9", Position: "F", Age: 18, BirthYear: 2007, Hometown: "Duluth, MN"},
		Season:       "2025-2026",
		League:       "NA3HL",
	}.WithStats(domain.StatLine{Games: 10, Goals: 5, Assists: 3, Points: 8, PIM: 2})
	want := domain.TeamResult{ID: "42", Name: "Hawks", League: "NA3HL", Season: "2025-2026", Players: []domain.Player{alex}}

	teamRow, players := RowsFromTeam("NA3HL", want, time.Now())
	got := TeamFromRows(teamRow, players)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("team mismatch (-want +got):\n%s", diff)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, names, "migrations/000001_create_teams_players.up.sql")
	assert.Contains(t, names, "migrations/000001_create_teams_players.down.sql")
}
