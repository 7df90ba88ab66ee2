// Package scraper drives a league scrape team by team: roster, stats,
// reconciliation, pacing and progress reporting.
package scraper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/ingest"
	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/progress"
	"github.com/fortuna/rinkscout/internal/reconciliation"
	"github.com/fortuna/rinkscout/internal/retry"
)

type RosterSource interface {
	ExtractRoster(ctx context.Context, team domain.Team, season string, onProgress ingest.RosterProgress) ([]domain.RosterPlayer, error)
}

type StatsSource interface {
	ExtractStats(ctx context.Context, team domain.Team, season string) ([]domain.StatsPlayer, error)
}

type Combiner interface {
	Combine(roster []domain.RosterPlayer, stats []domain.StatsPlayer, tc reconciliation.TeamContext) []domain.Player
}

// delaySetter is implemented by extractors whose settle wait follows the
// scrape delay.
type delaySetter interface {
	SetDelay(time.Duration)
}

// Config holds the pacing knobs of a run.
type Config struct {
	// Delay is the pause between teams.
	Delay time.Duration
	// BatchSize triggers a longer pause (3x Delay) after every BatchSize teams.
	BatchSize int
	// MaxTeams caps how many teams are scraped. 0 means no cap.
	MaxTeams int
}

func DefaultConfig() Config {
	return Config{Delay: 3 * time.Second, BatchSize: 5}
}

// Orchestrator runs ScrapeAll on the caller's goroutine. Stop, LiveTeams and
// the other accessors are safe to call from other goroutines.
type Orchestrator struct {
	roster RosterSource
	stats  StatsSource
	engine Combiner
	log    *logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time

	stop atomic.Bool

	mu        sync.Mutex
	cfg       Config
	observer  progress.Observer
	live      []domain.TeamResult
	remaining []domain.Team
}

type Option func(*Orchestrator)

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithLogger(log *logging.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

func New(roster RosterSource, stats StatsSource, engine Combiner, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		roster: roster,
		stats:  stats,
		engine: engine,
		log:    logging.Default(),
		sleep:  retry.Sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With("component", "orchestrator")
	o.Configure(cfg)
	return o
}

// Configure replaces the pacing configuration for subsequent runs.
func (o *Orchestrator) Configure(cfg Config) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.MaxTeams < 0 {
		cfg.MaxTeams = 0
	}
	o.mu.Lock()
	o.cfg = cfg
	o.mu.Unlock()

	for _, src := range []any{o.roster, o.stats} {
		if ds, ok := src.(delaySetter); ok {
			ds.SetDelay(cfg.Delay)
		}
	}
}

func (o *Orchestrator) Config() Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

func (o *Orchestrator) SetProgressObserver(obs progress.Observer) {
	o.mu.Lock()
	o.observer = obs
	o.mu.Unlock()
}

// Stop asks the running scrape to finish after its current step.
func (o *Orchestrator) Stop() {
	if o.stop.CompareAndSwap(false, true) {
		o.log.Info("stop signal received")
	}
}

func (o *Orchestrator) Stopped() bool {
	return o.stop.Load()
}

// LiveTeams returns a copy of every team finished since the last ClearLiveTeams.
func (o *Orchestrator) LiveTeams() []domain.TeamResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return domain.CloneResults(o.live)
}

func (o *Orchestrator) ClearLiveTeams() {
	o.mu.Lock()
	o.live = nil
	o.mu.Unlock()
}

// Remaining lists the teams a stopped run did not finish.
func (o *Orchestrator) Remaining() []domain.Team {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Team(nil), o.remaining...)
}

func (o *Orchestrator) interrupted(ctx context.Context) bool {
	return o.stop.Load() || ctx.Err() != nil
}

// ScrapeAll scrapes teams in order and returns one result per finished team.
// When stopped (via Stop or ctx) it returns what was finished so far; a team
// caught between phases is discarded.
func (o *Orchestrator) ScrapeAll(ctx context.Context, teams []domain.Team, season string) []domain.TeamResult {
	o.stop.Store(false)
	cfg := o.Config()

	if cfg.MaxTeams > 0 && len(teams) > cfg.MaxTeams {
		teams = teams[:cfg.MaxTeams]
		o.emit(progress.Event{Message: fmt.Sprintf("Limited to %d teams for this scrape", cfg.MaxTeams), Phase: progress.PhaseInfo})
	}
	total := len(teams)
	o.setRemaining(teams)

	if total == 0 {
		o.emit(progress.Event{Message: "No teams to scrape", Phase: progress.PhaseFinished, Completed: true})
		return nil
	}

	o.emit(progress.Event{Message: fmt.Sprintf("Starting scrape of %d teams", total), Total: total, Phase: progress.PhaseInfo})
	estimate := time.Duration(total) * (3*cfg.Delay + 10*time.Second)
	o.emit(progress.Event{Message: fmt.Sprintf("Estimated time: %.1f minutes", estimate.Minutes()), Phase: progress.PhaseInfo})
	o.log.Info("scrape started", "teams", total, "season", season, "estimate", estimate)

	start := o.now()
	results := make([]domain.TeamResult, 0, total)
	stopped := false

	for i, team := range teams {
		current := i + 1
		if o.interrupted(ctx) {
			stopped = true
			break
		}

		o.emit(progress.Event{
			Message:     fmt.Sprintf("Starting %s...", team.Name),
			Current:     current,
			Total:       total,
			Phase:       progress.PhaseStarting,
			CurrentTeam: &progress.TeamProgress{ID: team.ID, Name: team.Name, League: team.League, Status: progress.PhaseStarting},
		})

		result, cut, err := o.scrapeTeam(ctx, team, season)
		if cut {
			o.log.Info("team interrupted, discarding partial data", "team", team.Name)
			stopped = true
			break
		}
		if err != nil {
			o.log.Error("team scrape failed", "team", team.Name, "err", err)
			o.emit(progress.Event{
				Message:     fmt.Sprintf("Error with %s: %v", team.Name, err),
				Current:     current,
				Total:       total,
				Phase:       progress.PhaseError,
				CurrentTeam: &progress.TeamProgress{ID: team.ID, Name: team.Name, League: team.League, Status: progress.PhaseError, Error: err.Error()},
			})
			result = domain.TeamResult{ID: team.ID, Name: team.Name, League: team.League, Season: season, URL: team.URL}
		}
		results = append(results, result)
		o.setRemaining(teams[current:])

		if err == nil {
			o.emit(progress.Event{
				Message: fmt.Sprintf("Completed %s - %d players", team.Name, len(result.Players)),
				Current: current,
				Total:   total,
				Phase:   progress.PhaseCompleted,
				CurrentTeam: &progress.TeamProgress{
					ID: team.ID, Name: team.Name, League: team.League,
					Status: progress.PhaseCompleted, Players: result.Clone().Players,
				},
			})
		}

		if current < total && !o.interrupted(ctx) {
			if o.sleep(ctx, cfg.Delay) != nil {
				stopped = true
				break
			}
			if current%cfg.BatchSize == 0 {
				pause := 3 * cfg.Delay
				o.emit(progress.Event{Message: fmt.Sprintf("Batch break - pausing %s...", pause), Phase: progress.PhaseBatchPause})
				if o.sleep(ctx, pause) != nil {
					stopped = true
					break
				}
			}
		}

		if current%3 == 0 || current == total {
			elapsed := o.now().Sub(start)
			eta := time.Duration(float64(elapsed) / float64(current) * float64(total-current))
			o.emit(progress.Event{
				Message: fmt.Sprintf("Progress: %d/%d teams (ETA: %.0fm)", current, total, eta.Minutes()),
				Current: current,
				Total:   total,
				Phase:   progress.PhaseETA,
			})
		}
	}

	elapsed := o.now().Sub(start)
	if stopped {
		o.log.Info("scrape stopped", "finished", len(results), "of", total, "elapsed", elapsed)
		o.emit(progress.Event{
			Message: fmt.Sprintf("Scraping stopped by user after %d/%d teams", len(results), total),
			Current: len(results),
			Total:   total,
			Phase:   progress.PhaseStopped,
			Stopped: true,
		})
		return results
	}

	o.log.Info("scrape completed",
		"teams", len(results), "players", domain.CountPlayers(results), "elapsed", elapsed)
	o.emit(progress.Event{
		Message:   fmt.Sprintf("Scraping completed! %d teams in %.1f minutes", len(results), elapsed.Minutes()),
		Current:   len(results),
		Total:     total,
		Phase:     progress.PhaseFinished,
		Completed: true,
	})
	return results
}

// scrapeTeam runs the phases of one team. cut reports a stop between phases;
// err reports a failure (including a recovered panic) that should not end the run.
func (o *Orchestrator) scrapeTeam(ctx context.Context, team domain.Team, season string) (result domain.TeamResult, cut bool, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		result, cut = o.runPhases(ctx, team, season)
	})
	if r := pc.Recovered(); r != nil {
		return domain.TeamResult{}, false, r.AsError()
	}
	return result, cut, nil
}

func (o *Orchestrator) runPhases(ctx context.Context, team domain.Team, season string) (domain.TeamResult, bool) {
	started := o.now()

	roster, err := o.roster.ExtractRoster(ctx, team, season, func(found []domain.RosterPlayer, total int) {
		players := make([]domain.Player, len(found))
		for i, rp := range found {
			players[i] = domain.Player{RosterPlayer: rp, Season: season, League: team.League}
		}
		o.emit(progress.Event{
			Message: fmt.Sprintf("Finding players in %s...", team.Name),
			Phase:   progress.PhaseRoster,
			CurrentTeam: &progress.TeamProgress{
				ID: team.ID, Name: team.Name, League: team.League, Status: progress.PhaseRoster,
				Players: players, CurrentCount: len(found), TotalCount: total,
			},
		})
	})
	if err != nil || o.interrupted(ctx) {
		return domain.TeamResult{}, true
	}

	stats, err := o.stats.ExtractStats(ctx, team, season)
	if err != nil || o.interrupted(ctx) {
		return domain.TeamResult{}, true
	}

	players := o.engine.Combine(roster, stats, reconciliation.TeamContext{Team: team.Name, League: team.League, Season: season})
	result := domain.TeamResult{
		ID:      team.ID,
		Name:    team.Name,
		League:  team.League,
		Season:  season,
		URL:     team.URL,
		Players: players,
	}

	o.mu.Lock()
	o.live = append(o.live, result.Clone())
	o.mu.Unlock()

	o.log.Info("team completed", "team", team.Name, "players", len(players), "elapsed", o.now().Sub(started))
	return result, false
}

func (o *Orchestrator) setRemaining(teams []domain.Team) {
	o.mu.Lock()
	o.remaining = append([]domain.Team(nil), teams...)
	o.mu.Unlock()
}

// emit stamps and delivers an event. The observer runs outside the lock so it
// may call back into the orchestrator.
func (o *Orchestrator) emit(ev progress.Event) {
	o.mu.Lock()
	obs := o.observer
	ev.LiveTeams = domain.CloneResults(o.live)
	o.mu.Unlock()

	ev.At = o.now()
	if ev.Total > 0 {
		ev.Percentage = progress.Percent(ev.Current, ev.Total)
	}
	if obs != nil {
		obs.OnProgress(ev)
	}
}
