package store

import (
	"time"

	"github.com/fortuna/rinkscout/internal/domain"
)

// TeamRow is one row of the teams table.
type TeamRow struct {
	TeamID    string    `db:"team_id"`
	Season    string    `db:"season"`
	League    string    `db:"league"`
	Name      string    `db:"name"`
	URL       string    `db:"url"`
	ScrapedAt time.Time `db:"scraped_at"`
}

// PlayerRow is one row of the players table.
type PlayerRow struct {
	TeamID     string  `db:"team_id"`
	Season     string  `db:"season"`
	Name       string  `db:"name"`
	Ordinal    int     `db:"ordinal"`
	League     string  `db:"league"`
	Jersey     string  `db:"jersey"`
	Position   string  `db:"position"`
	Shoots     string  `db:"shoots"`
	Age        int     `db:"age"`
	BirthYear  int     `db:"birth_year"`
	Height     string  `db:"height"`
	Weight     string  `db:"weight"`
	Hometown   string  `db:"hometown"`
	ProfileURL string  `db:"profile_url"`
	Games      int     `db:"games"`
	Goals      int     `db:"goals"`
	Assists    int     `db:"assists"`
	Points     int     `db:"points"`
	PIM        int     `db:"pim"`
	PPG        float64 `db:"ppg"`
}

// RowsFromTeam flattens a team result. Players sharing a name collapse to the
// last one, matching the table's primary key.
func RowsFromTeam(league string, t domain.TeamResult, at time.Time) (TeamRow, []PlayerRow) {
	team := TeamRow{TeamID: t.ID, Season: t.Season, League: league, Name: t.Name, URL: t.URL, ScrapedAt: at}

	index := make(map[string]int, len(t.Players))
	players := make([]PlayerRow, 0, len(t.Players))
	for _, p := range t.Players {
		row := PlayerRow{
			TeamID: t.ID, Season: t.Season, Name: p.Name, League: league,
			Jersey: p.Jersey, Position: p.Position, Shoots: p.Shoots, Age: p.Age, BirthYear: p.BirthYear,
			Height: p.Height, Weight: p.Weight, Hometown: p.Hometown, ProfileURL: p.ProfileURL,
			Games: p.Games, Goals: p.Goals, Assists: p.Assists, Points: p.Points, PIM: p.PIM, PPG: p.PPG,
		}
		if i, dup := index[p.Name]; dup {
			row.Ordinal = players[i].Ordinal
			players[i] = row
			continue
		}
		row.Ordinal = len(players)
		index[p.Name] = len(players)
		players = append(players, row)
	}
	return team, players
}

// TeamFromRows rebuilds a team result. players must already be in ordinal order.
func TeamFromRows(team TeamRow, players []PlayerRow) domain.TeamResult {
	out := domain.TeamResult{
		ID:      team.TeamID,
		Name:    team.Name,
		League:  team.League,
		Season:  team.Season,
		URL:     team.URL,
		Players: make([]domain.Player, 0, len(players)),
	}
	for _, p := range players {
		out.Players = append(out.Players, domain.Player{
			RosterPlayer: domain.RosterPlayer{
				Name: p.Name, Jersey: p.Jersey, Position: p.Position, Shoots: p.Shoots,
				Age: p.Age, BirthYear: p.BirthYear, Height: p.Height, Weight: p.Weight,
				Hometown: p.Hometown, ProfileURL: p.ProfileURL,
			},
			StatLine: domain.StatLine{Games: p.Games, Goals: p.Goals, Assists: p.Assists, Points: p.Points, PIM: p.PIM},
			Season:   p.Season,
			League:   p.League,
			PPG:      p.PPG,
		})
	}
	return out
}
