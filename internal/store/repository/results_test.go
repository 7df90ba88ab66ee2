package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/rinkscout/internal/store"
)

func TestAssembleGroupsPlayersByTeamSeason(t *testing.T) {
	teams := []store.TeamRow{
		{TeamID: "1", Season: "2024-2025", League: "EHL", Name: "Hawks"},
		{TeamID: "1", Season: "2025-2026", League: "EHL", Name: "Hawks"},
		{TeamID: "2", Season: "2025-2026", League: "EHL", Name: "Owls"},
	}
	players := []store.PlayerRow{
		{TeamID: "1", Season: "2025-2026", Name: "Alex A", Ordinal: 0},
		{TeamID: "1", Season: "2025-2026", Name: "Sam B", Ordinal: 1},
		{TeamID: "1", Season: "2024-2025", Name: "Old Timer", Ordinal: 0},
	}

	got := assemble(teams, players)

	require.Len(t, got, 3)
	assert.Equal(t, "Old Timer", got[0].Players[0].Name)
	require.Len(t, got[1].Players, 2)
	assert.Equal(t, "Sam B", got[1].Players[1].Name)
	assert.Empty(t, got[2].Players)
	assert.NotNil(t, got[2].Players)
}
