package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/progress"
	"github.com/fortuna/rinkscout/internal/reconciliation"
)

var (
	ErrScrapeInProgress = errors.New("scraping already in progress")
	ErrNothingToResume  = errors.New("no stopped scraping to resume")
)

// ResultSink receives every league once its scrape ends, stopped runs included.
type ResultSink interface {
	SaveLeague(ctx context.Context, league string, teams []domain.TeamResult) error
}

// SnapshotSource restores previously scraped leagues.
type SnapshotSource interface {
	LoadAll(ctx context.Context) (map[string][]domain.TeamResult, error)
}

// LeagueStatus is the per-league progress entry of Status.
type LeagueStatus struct {
	Current    int            `json:"current"`
	Total      int            `json:"total"`
	Percentage float64        `json:"percentage"`
	Status     progress.Phase `json:"status"`
}

// Status is the dashboard view of the current or last scrape.
type Status struct {
	Active      bool                    `json:"active"`
	Message     string                  `json:"message"`
	Completed   bool                    `json:"completed"`
	Stopped     bool                    `json:"stopped"`
	Current     int                     `json:"current"`
	Total       int                     `json:"total"`
	Percentage  float64                 `json:"percentage"`
	Phase       progress.Phase          `json:"phase,omitempty"`
	League      string                  `json:"league,omitempty"`
	CurrentTeam *progress.TeamProgress  `json:"current_team,omitempty"`
	LiveTeams   []domain.TeamResult     `json:"live_teams"`
	Leagues     map[string]LeagueStatus `json:"leagues"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

type ControllerConfig struct {
	Factory       DriverFactory
	Components    Components
	DefaultSeason string
	Sinks         []ResultSink
	Observers     []progress.Observer
	Logger        *logging.Logger
}

// Controller runs at most one scrape at a time on a background goroutine and
// keeps the results grouped by league.
type Controller struct {
	factory       DriverFactory
	components    Components
	defaultSeason string
	sinks         []ResultSink
	observers     progress.Multi
	validate      *validator.Validate
	log           *logging.Logger

	wg conc.WaitGroup

	mu        sync.Mutex
	session   *Session
	pipeline  *Pipeline
	status    Status
	results   map[string][]domain.TeamResult
	cancelRun context.CancelFunc
	resumable *Request
	remaining []domain.Team
}

func NewController(cfg ControllerConfig) *Controller {
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}
	if cfg.Components.Logger == nil {
		cfg.Components.Logger = log
	}
	if cfg.DefaultSeason == "" {
		cfg.DefaultSeason = "2025-2026"
	}
	return &Controller{
		factory:       cfg.Factory,
		components:    cfg.Components,
		defaultSeason: cfg.DefaultSeason,
		sinks:         cfg.Sinks,
		observers:     progress.Multi(cfg.Observers),
		validate:      newValidator(),
		log:           log.With("component", "controller"),
		session:       New(cfg.Factory, log),
		status:        Status{Completed: true, Leagues: map[string]LeagueStatus{}},
		results:       make(map[string][]domain.TeamResult),
	}
}

// Start validates req and launches the scrape in the background. It rejects,
// rather than queues, a request made while another scrape is active.
func (c *Controller) Start(ctx context.Context, req Request) error {
	if err := c.validateRequest(ctx, req); err != nil {
		return err
	}
	req = c.withDefaults(req)
	return c.launch(ctx, req, nil)
}

// Resume re-runs the teams a stopped scrape left unfinished.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	if c.status.Active {
		c.mu.Unlock()
		return ErrScrapeInProgress
	}
	if !c.status.Stopped || c.resumable == nil || len(c.remaining) == 0 {
		c.mu.Unlock()
		return ErrNothingToResume
	}
	req := *c.resumable
	req.FirstLeague = false
	teams := append([]domain.Team(nil), c.remaining...)
	c.mu.Unlock()

	return c.launch(ctx, req, teams)
}

func (c *Controller) launch(ctx context.Context, req Request, teams []domain.Team) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.Active {
		return ErrScrapeInProgress
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancelRun = cancel
	c.status = Status{
		Active:    true,
		Message:   fmt.Sprintf("Starting %s...", req.LeagueName),
		League:    req.LeagueName,
		Leagues:   c.status.Leagues,
		LiveTeams: c.status.LiveTeams,
		UpdatedAt: time.Now(),
	}
	if c.status.Leagues == nil {
		c.status.Leagues = map[string]LeagueStatus{}
	}
	resume := teams != nil

	c.wg.Go(func() {
		defer cancel()
		var (
			pc      panics.Catcher
			message string
			stopped bool
		)
		pc.Try(func() { message, stopped = c.run(runCtx, req, teams) })
		if r := pc.Recovered(); r != nil {
			c.log.Error("scrape crashed", "league", req.LeagueName, "err", r.AsError())
			message, stopped = fmt.Sprintf("Error: %v", r.Value), false
		}
		c.finish(message, stopped)
	})

	c.log.Info("scrape launched", "league", req.LeagueName, "url", req.LeagueURL, "season", req.Season, "resume", resume)
	return nil
}

// run scrapes one league and returns the final status message. The session
// is released before run returns, so the controller only reports idle once a
// new run can begin.
func (c *Controller) run(ctx context.Context, req Request, teams []domain.Team) (string, bool) {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	driver, err := sess.Begin(ctx)
	if err != nil {
		c.log.Error("cannot start scrape", "err", err)
		return fmt.Sprintf("Error: %v", err), false
	}
	defer sess.End()

	c.mu.Lock()
	if c.pipeline == nil || c.pipeline.driver != driver {
		c.pipeline = c.components.build(driver, req.Season)
	}
	pipeline := c.pipeline
	c.mu.Unlock()

	orch := pipeline.Orchestrator()
	orch.Configure(c.scraperConfig(req))
	if req.FirstLeague {
		orch.ClearLiveTeams()
	}
	orch.SetProgressObserver(progress.ObserverFunc(func(ev progress.Event) {
		c.onProgress(req.LeagueName, ev)
	}))

	resume := teams != nil
	if !resume {
		c.onProgress(req.LeagueName, progress.Event{Message: "Searching for team links...", Phase: progress.PhaseInfo, At: time.Now()})
		teams, err = pipeline.Discovery(req.Season).DiscoverTeams(ctx, req.LeagueURL, req.Season)
		if err != nil {
			c.markStopped(req, nil)
			return fmt.Sprintf("Stopped while discovering %s", req.LeagueName), true
		}
		if len(teams) == 0 {
			return fmt.Sprintf("No teams found in %s", req.LeagueName), false
		}
		c.onProgress(req.LeagueName, progress.Event{Message: fmt.Sprintf("Found %d teams", len(teams)), Phase: progress.PhaseInfo, At: time.Now()})
	}

	results := orch.ScrapeAll(ctx, teams, req.Season)
	stopped := orch.Stopped() || ctx.Err() != nil
	league := c.storeResults(req.LeagueName, results, resume)
	c.deliver(req.LeagueName, league)

	if stopped {
		c.markStopped(req, orch.Remaining())
		return fmt.Sprintf("Stopped %s: %d teams scraped", req.LeagueName, len(results)), true
	}
	c.clearResumable()
	return fmt.Sprintf("Complete! %s: %d teams", req.LeagueName, len(results)), false
}

// storeResults records a run's teams. A resumed run extends the league.
func (c *Controller) storeResults(league string, results []domain.TeamResult, extend bool) []domain.TeamResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !extend {
		c.results[league] = domain.CloneResults(results)
		return domain.CloneResults(results)
	}

	merged := c.results[league]
	index := make(map[string]int, len(merged))
	for i, t := range merged {
		index[t.ID] = i
	}
	for _, t := range results {
		if i, ok := index[t.ID]; ok {
			merged[i] = t.Clone()
			continue
		}
		index[t.ID] = len(merged)
		merged = append(merged, t.Clone())
	}
	c.results[league] = merged
	return domain.CloneResults(merged)
}

func (c *Controller) deliver(league string, teams []domain.TeamResult) {
	if len(teams) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, sink := range c.sinks {
		if err := sink.SaveLeague(ctx, league, teams); err != nil {
			c.log.Error("result sink failed", "league", league, "sink", fmt.Sprintf("%T", sink), "err", err)
		}
	}
}

func (c *Controller) onProgress(league string, ev progress.Event) {
	c.mu.Lock()
	st := &c.status
	st.Message = ev.Message
	st.Phase = ev.Phase
	st.Stopped = ev.Stopped
	if ev.Total > 0 {
		st.Current, st.Total, st.Percentage = ev.Current, ev.Total, ev.Percentage
		st.Leagues[league] = LeagueStatus{Current: ev.Current, Total: ev.Total, Percentage: ev.Percentage, Status: ev.Phase}
	}
	if ev.CurrentTeam != nil {
		st.CurrentTeam = ev.CurrentTeam
	}
	if ev.LiveTeams != nil {
		st.LiveTeams = ev.LiveTeams
	}
	st.UpdatedAt = ev.At
	c.mu.Unlock()

	c.observers.OnProgress(ev)
}

func (c *Controller) finish(message string, stopped bool) {
	c.mu.Lock()
	c.status.Active = false
	c.status.Completed = !stopped
	c.status.Stopped = stopped
	c.status.Message = message
	c.status.UpdatedAt = time.Now()
	c.cancelRun = nil
	c.mu.Unlock()
	c.log.Info("scrape finished", "message", message, "stopped", stopped)
}

func (c *Controller) markStopped(req Request, remaining []domain.Team) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumable = &req
	c.remaining = remaining
}

func (c *Controller) clearResumable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumable = nil
	c.remaining = nil
}

// Status returns a snapshot of the current progress.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status
	st.LiveTeams = domain.CloneResults(c.status.LiveTeams)
	st.Leagues = make(map[string]LeagueStatus, len(c.status.Leagues))
	for k, v := range c.status.Leagues {
		st.Leagues[k] = v
	}
	return st
}

// Stop signals the active scrape. It reports whether one was running.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.status.Active {
		return false
	}
	if c.pipeline != nil {
		c.pipeline.Orchestrator().Stop()
	}
	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.log.Info("stop requested")
	return true
}

// Wait blocks until the background scrape, if any, returns.
func (c *Controller) Wait() {
	if r := c.wg.WaitAndRecover(); r != nil {
		c.log.Error("background scrape panicked", "err", r.AsError())
	}
}

// Cleanup stops any active scrape, releases the driver and prepares a fresh
// session for the next Start. Results are kept.
func (c *Controller) Cleanup() error {
	c.Stop()
	c.Wait()

	c.mu.Lock()
	old := c.session
	c.session = New(c.factory, c.log)
	c.pipeline = nil
	c.mu.Unlock()

	if err := old.Dispose(); err != nil {
		return errors.Wrap(err, "cleanup")
	}
	return nil
}

// Results returns every scraped league.
func (c *Controller) Results() map[string][]domain.TeamResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]domain.TeamResult, len(c.results))
	for league, teams := range c.results {
		out[league] = domain.CloneResults(teams)
	}
	return out
}

// Team finds a team by ID across leagues.
func (c *Controller) Team(id string) (domain.TeamResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, teams := range c.results {
		for _, t := range teams {
			if t.ID == id {
				return t.Clone(), true
			}
		}
	}
	return domain.TeamResult{}, false
}

// Restore loads leagues from source without overwriting leagues already held.
func (c *Controller) Restore(ctx context.Context, source SnapshotSource) error {
	leagues, err := source.LoadAll(ctx)
	if err != nil {
		return errors.Wrap(err, "restore results")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for league, teams := range leagues {
		if _, ok := c.results[league]; !ok {
			c.results[league] = teams
		}
	}
	c.log.Info("results restored", "leagues", len(leagues))
	return nil
}

// Metrics exposes reconciliation counters of the current pipeline.
func (c *Controller) Metrics() (reconciliation.Metrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline == nil {
		return reconciliation.Metrics{}, false
	}
	return c.pipeline.Metrics(), true
}
