// Package scheduler runs multi-league sweeps, once on demand or weekly.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/export"
	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/retry"
	"github.com/fortuna/rinkscout/internal/session"
)

// Runner is the part of session.Controller a sweep drives.
type Runner interface {
	Start(ctx context.Context, req session.Request) error
	Wait()
	Stop() bool
	Results() map[string][]domain.TeamResult
}

type Config struct {
	Season      string
	Weekday     time.Weekday
	Hour        int
	LeaguePause time.Duration
	// DataDir receives JSON and CSV exports after each sweep. Empty skips exports.
	DataDir string
}

func DefaultConfig() Config {
	return Config{
		Season:      "2025-2026",
		Weekday:     time.Sunday,
		Hour:        3,
		LeaguePause: 5 * time.Second,
		DataDir:     "data",
	}
}

type Option func(*Scheduler)

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) { s.sleep = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithLogger(log *logging.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// Scheduler sweeps a fixed league list through one Runner.
type Scheduler struct {
	runner  Runner
	leagues []League
	cfg     Config
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
	log     *logging.Logger
}

func New(runner Runner, leagues []League, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:  runner,
		leagues: leagues,
		cfg:     cfg,
		sleep:   retry.Sleep,
		now:     time.Now,
		log:     logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "scheduler")
	return s
}

// Sweep scrapes every league in order and exports the combined result.
// Leagues that yield no teams are left out. A cancelled ctx stops the league
// in flight and returns what was gathered so far together with ctx.Err().
func (s *Scheduler) Sweep(ctx context.Context) (export.Leagues, error) {
	started := s.now()
	out := make(export.Leagues)

	s.log.Info("sweep starting", "leagues", len(s.leagues), "season", s.cfg.Season)
	for i, league := range s.leagues {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.LeaguePause); err != nil {
				break
			}
		}

		log := s.log.With("league", league.Name, "position", fmt.Sprintf("%d/%d", i+1, len(s.leagues)))
		teams, err := s.scrapeLeague(ctx, league, i == 0)
		if err != nil {
			log.Error("league failed", "err", err)
			continue
		}
		if len(teams) == 0 {
			log.Warn("no teams scraped")
			continue
		}
		out[league.Name] = teams
		log.Info("league complete", "teams", len(teams), "players", domain.CountPlayers(teams))
	}

	if len(out) > 0 && s.cfg.DataDir != "" {
		if err := s.export(out, started); err != nil {
			s.log.Error("export failed", "err", err)
		}
	}

	s.log.Info("sweep finished", "leagues", len(out), "elapsed", s.now().Sub(started).Round(time.Second))
	return out, ctx.Err()
}

func (s *Scheduler) scrapeLeague(ctx context.Context, league League, first bool) ([]domain.TeamResult, error) {
	req := session.Request{
		LeagueURL:   league.URL,
		LeagueName:  league.Name,
		Season:      s.cfg.Season,
		MaxTeams:    league.MaxTeams,
		FirstLeague: first,
	}
	if err := s.runner.Start(ctx, req); err != nil {
		return nil, errors.Wrapf(err, "start %s", league.Name)
	}

	stop := context.AfterFunc(ctx, func() { s.runner.Stop() })
	s.runner.Wait()
	stop()

	return s.runner.Results()[league.Name], nil
}

func (s *Scheduler) export(data export.Leagues, at time.Time) error {
	ts := export.Timestamp(at)
	path, err := export.WriteJSON(s.cfg.DataDir, ts, data)
	if err != nil {
		return err
	}
	csvs, err := export.WriteCSV(s.cfg.DataDir, ts, data)
	if err != nil {
		return err
	}
	s.log.Info("sweep exported", "json", path, "csv_files", len(csvs))
	return nil
}

// Run sweeps at the configured weekday and hour until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("weekly sweep scheduler started", "weekday", s.cfg.Weekday.String(), "hour", s.cfg.Hour)
	for {
		now := s.now()
		next := NextRun(now, s.cfg.Weekday, s.cfg.Hour)
		s.log.Info("next sweep scheduled", "at", next.Format("2006-01-02 15:04:05"), "in", next.Sub(now).Round(time.Second))

		if err := s.sleep(ctx, next.Sub(now)); err != nil {
			s.log.Info("weekly sweep scheduler stopped")
			return nil
		}
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() != nil {
			s.log.Info("weekly sweep scheduler stopped during sweep")
			return nil
		}
	}
}

// NextRun returns the first weekday/hour strictly after now, in now's location.
func NextRun(now time.Time, weekday time.Weekday, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(raw string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, errors.Newf("unknown weekday %q", raw)
}
