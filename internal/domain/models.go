// Package domain holds the team and player records shared by the extraction,
// reconciliation and delivery layers.
package domain

import "strconv"

// Team is one club discovered on a league page. ID is the numeric site identifier.
type Team struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	League string `json:"league"`
}

// RosterPlayer is a partial record read from a team's roster table.
type RosterPlayer struct {
	Name       string `json:"name"`
	Jersey     string `json:"jersey"`
	Position   string `json:"position"`
	Shoots     string `json:"shoots"`
	Age        int    `json:"age"`
	BirthYear  int    `json:"birthYear"`
	Height     string `json:"height"`
	Weight     string `json:"weight"`
	Hometown   string `json:"hometown"`
	ProfileURL string `json:"profile_url"`
}

// StatLine is the counting-stat block shared by StatsPlayer and Player.
type StatLine struct {
	Games   int `json:"games"`
	Goals   int `json:"goals"`
	Assists int `json:"assists"`
	Points  int `json:"points"`
	PIM     int `json:"pim"`
}

// StatsPlayer is a partial record read from a team's statistics table.
type StatsPlayer struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	StatLine
}

// Player is the reconciled record delivered to callers.
type Player struct {
	RosterPlayer
	StatLine
	Season string  `json:"season"`
	League string  `json:"league"`
	PPG    float64 `json:"ppg"`
}

// TeamResult is one finished team. It is not modified once appended to a run.
type TeamResult struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	League  string   `json:"league"`
	Season  string   `json:"season"`
	URL     string   `json:"url"`
	Players []Player `json:"players"`
}

// PPG returns points per game rounded to two decimals, or 0 when no games were played.
// Rounding works on the exact decimal value of the quotient with ties to even,
// so 1 point in 8 games is 0.12.
func PPG(points, games int) float64 {
	if games <= 0 {
		return 0
	}
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(float64(points)/float64(games), 'f', 2, 64), 64)
	return rounded
}

// WithStats overlays a stat line onto the player and recomputes PPG.
func (p Player) WithStats(line StatLine) Player {
	p.StatLine = line
	p.PPG = PPG(line.Points, line.Games)
	return p
}

// Clone returns a deep copy so snapshots handed to observers cannot alias live state.
func (t TeamResult) Clone() TeamResult {
	cpy := t
	cpy.Players = append([]Player(nil), t.Players...)
	return cpy
}

// CloneResults deep-copies a result list.
func CloneResults(results []TeamResult) []TeamResult {
	out := make([]TeamResult, len(results))
	for i, r := range results {
		out[i] = r.Clone()
	}
	return out
}

// CountPlayers sums the players across a result list.
func CountPlayers(results []TeamResult) int {
	total := 0
	for _, r := range results {
		total += len(r.Players)
	}
	return total
}
