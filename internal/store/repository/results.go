// Package repository reads and writes scraped leagues in Postgres.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/store"
)

const (
	upsertTeamQuery = `
INSERT INTO teams (team_id, season, league, name, url, scraped_at)
VALUES (:team_id, :season, :league, :name, :url, :scraped_at)
ON CONFLICT (team_id, season) DO UPDATE SET
    league = EXCLUDED.league,
    name = EXCLUDED.name,
    url = EXCLUDED.url,
    scraped_at = EXCLUDED.scraped_at`

	deletePlayersQuery = `DELETE FROM players WHERE team_id = $1 AND season = $2`

	insertPlayersQuery = `
INSERT INTO players (
    team_id, season, name, ordinal, league, jersey, position, shoots, age, birth_year,
    height, weight, hometown, profile_url, games, goals, assists, points, pim, ppg
) VALUES (
    :team_id, :season, :name, :ordinal, :league, :jersey, :position, :shoots, :age, :birth_year,
    :height, :weight, :hometown, :profile_url, :games, :goals, :assists, :points, :pim, :ppg
)`

	teamColumns   = `team_id, season, league, name, url, scraped_at`
	playerColumns = `team_id, season, name, ordinal, league, jersey, position, shoots, age, birth_year,
    height, weight, hometown, profile_url, games, goals, assists, points, pim, ppg`
)

// ResultRepository persists team results. It satisfies session.ResultSink and
// session.SnapshotSource.
type ResultRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewResultRepository(db *store.Database) *ResultRepository {
	return &ResultRepository{db: db.DB(), now: time.Now}
}

// SaveLeague upserts every team and replaces its players in one transaction.
func (r *ResultRepository) SaveLeague(ctx context.Context, league string, teams []domain.TeamResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin save league tx")
	}
	defer func() { _ = tx.Rollback() }()

	at := r.now().UTC()
	for _, t := range teams {
		teamRow, playerRows := store.RowsFromTeam(league, t, at)
		if _, err := tx.NamedExecContext(ctx, upsertTeamQuery, teamRow); err != nil {
			return errors.Wrapf(err, "upsert team %s", t.ID)
		}
		if _, err := tx.ExecContext(ctx, deletePlayersQuery, t.ID, t.Season); err != nil {
			return errors.Wrapf(err, "clear players of team %s", t.ID)
		}
		if len(playerRows) == 0 {
			continue
		}
		if _, err := tx.NamedExecContext(ctx, insertPlayersQuery, playerRows); err != nil {
			return errors.Wrapf(err, "insert players of team %s", t.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit save league tx")
	}
	return nil
}

// ListTeams returns the teams of a league ordered by name.
func (r *ResultRepository) ListTeams(ctx context.Context, league string) ([]domain.TeamResult, error) {
	var teams []store.TeamRow
	query := `SELECT ` + teamColumns + ` FROM teams WHERE league = $1 ORDER BY name, season`
	if err := r.db.SelectContext(ctx, &teams, query, league); err != nil {
		return nil, errors.Wrap(err, "list teams")
	}

	var players []store.PlayerRow
	query = `SELECT ` + playerColumns + ` FROM players WHERE league = $1 ORDER BY team_id, season, ordinal`
	if err := r.db.SelectContext(ctx, &players, query, league); err != nil {
		return nil, errors.Wrap(err, "list players")
	}
	return assemble(teams, players), nil
}

// GetTeam returns the most recently scraped season of a team.
func (r *ResultRepository) GetTeam(ctx context.Context, teamID string) (domain.TeamResult, error) {
	var team store.TeamRow
	query := `SELECT ` + teamColumns + ` FROM teams WHERE team_id = $1 ORDER BY scraped_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &team, query, teamID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TeamResult{}, errors.Wrapf(store.ErrNotFound, "team %s", teamID)
		}
		return domain.TeamResult{}, errors.Wrap(err, "get team")
	}

	var players []store.PlayerRow
	query = `SELECT ` + playerColumns + ` FROM players WHERE team_id = $1 AND season = $2 ORDER BY ordinal`
	if err := r.db.SelectContext(ctx, &players, query, team.TeamID, team.Season); err != nil {
		return domain.TeamResult{}, errors.Wrap(err, "get team players")
	}
	return store.TeamFromRows(team, players), nil
}

// LoadAll returns every stored team grouped by league.
func (r *ResultRepository) LoadAll(ctx context.Context) (map[string][]domain.TeamResult, error) {
	var teams []store.TeamRow
	if err := r.db.SelectContext(ctx, &teams, `SELECT `+teamColumns+` FROM teams ORDER BY league, name, season`); err != nil {
		return nil, errors.Wrap(err, "load teams")
	}
	var players []store.PlayerRow
	if err := r.db.SelectContext(ctx, &players, `SELECT `+playerColumns+` FROM players ORDER BY team_id, season, ordinal`); err != nil {
		return nil, errors.Wrap(err, "load players")
	}

	out := make(map[string][]domain.TeamResult)
	for _, t := range assemble(teams, players) {
		out[t.League] = append(out[t.League], t)
	}
	return out, nil
}

// assemble joins player rows onto their teams, keeping the team order.
func assemble(teams []store.TeamRow, players []store.PlayerRow) []domain.TeamResult {
	type key struct{ id, season string }
	byTeam := make(map[key][]store.PlayerRow, len(teams))
	for _, p := range players {
		k := key{p.TeamID, p.Season}
		byTeam[k] = append(byTeam[k], p)
	}

	out := make([]domain.TeamResult, 0, len(teams))
	for _, t := range teams {
		out = append(out, store.TeamFromRows(t, byTeam[key{t.TeamID, t.Season}]))
	}
	return out
}
