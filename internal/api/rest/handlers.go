package rest

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/platform/logging"
	"github.com/fortuna/rinkscout/internal/reconciliation"
	"github.com/fortuna/rinkscout/internal/session"
)

// Scraper is the scrape controller the API drives.
type Scraper interface {
	Start(ctx context.Context, req session.Request) error
	Resume(ctx context.Context) error
	Stop() bool
	Cleanup() error
	Status() session.Status
	Results() map[string][]domain.TeamResult
	Team(id string) (domain.TeamResult, bool)
	Metrics() (reconciliation.Metrics, bool)
}

// Archive serves leagues persisted by earlier runs.
type Archive interface {
	ListTeams(ctx context.Context, league string) ([]domain.TeamResult, error)
	GetTeam(ctx context.Context, teamID string) (domain.TeamResult, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler contains dependencies for HTTP handlers
type Handler struct {
	scraper Scraper
	archive Archive
	checks  map[string]HealthCheck
	exports string
	log     *logging.Logger
}

// NewHandler creates a new handler. archive and checks may be nil.
func NewHandler(scraper Scraper, archive Archive, checks map[string]HealthCheck, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Default()
	}
	return &Handler{scraper: scraper, archive: archive, checks: checks, log: log.With("component", "rest")}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			deps[name] = err.Error()
			healthy = false
			continue
		}
		deps[name] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{
		"status":        status,
		"service":       "rinkscout",
		"scrape_active": h.scraper.Status().Active,
		"dependencies":  deps,
	})
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scraper.Status())
}

// StartScrape launches a league scrape in the background.
func (h *Handler) StartScrape(w http.ResponseWriter, r *http.Request) {
	var req session.Request
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty request body")
		}
		respondError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	if err := h.scraper.Start(r.Context(), req); err != nil {
		respondDomainError(w, err)
		return
	}

	st := h.scraper.Status()
	respondJSON(w, http.StatusAccepted, map[string]any{
		"status":  "Scraping started",
		"message": "Scraping " + st.League,
		"config": map[string]any{
			"league":     st.League,
			"league_url": req.LeagueURL,
			"season":     req.Season,
			"delay":      req.DelaySec,
			"max_teams":  req.MaxTeams,
			"batch_size": req.BatchSize,
		},
	})
}

func (h *Handler) StopScrape(w http.ResponseWriter, r *http.Request) {
	if h.scraper.Stop() {
		respondJSON(w, http.StatusOK, map[string]string{"status": "Stop signal sent"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "No active scraping"})
}

// Cleanup releases the browser session. Scraped results are kept.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if err := h.scraper.Cleanup(); err != nil {
		h.log.Error("cleanup failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Cleanup failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "Cleanup successful"})
}

func (h *Handler) ResumeScrape(w http.ResponseWriter, r *http.Request) {
	if err := h.scraper.Resume(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "Resumed", "message": "Scraping remaining teams"})
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, ok := h.scraper.Metrics()
	if !ok {
		respondError(w, http.StatusNotFound, "No scrape has run yet", nil)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// GetTeams returns scraped teams grouped by league, optionally one league.
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	results := h.scraper.Results()
	if league := strings.TrimSpace(r.URL.Query().Get("league")); league != "" {
		teams, ok := results[league]
		if !ok {
			respondError(w, http.StatusNotFound, "League not found", nil)
			return
		}
		results = map[string][]domain.TeamResult{league: teams}
	}
	respondJSON(w, http.StatusOK, results)
}

// GetTeam looks in the current results first, then in the archive.
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["teamID"]
	if team, ok := h.scraper.Team(teamID); ok {
		respondJSON(w, http.StatusOK, team)
		return
	}
	if h.archive != nil {
		team, err := h.archive.GetTeam(r.Context(), teamID)
		if err == nil {
			respondJSON(w, http.StatusOK, team)
			return
		}
		if status, _ := statusFor(err); status != http.StatusNotFound {
			h.log.Error("archive lookup failed", "team_id", teamID, "err", err)
			respondDomainError(w, err)
			return
		}
	}
	respondError(w, http.StatusNotFound, "Team not found", nil)
}

func (h *Handler) GetArchivedLeague(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "Archive not configured", nil)
		return
	}
	league := mux.Vars(r)["league"]
	teams, err := h.archive.ListTeams(r.Context(), league)
	if err != nil {
		h.log.Error("archive list failed", "league", league, "err", err)
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"league": league, "teams": teams})
}
