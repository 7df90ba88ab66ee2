package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/reconciliation"
	"github.com/fortuna/rinkscout/internal/session"
	"github.com/fortuna/rinkscout/internal/store"
)

type fakeScraper struct {
	status    session.Status
	results   map[string][]domain.TeamResult
	startErr  error
	resumeErr error
	started   []session.Request
	stopped   bool
	cleaned   bool
	metrics   *reconciliation.Metrics
	panicOn   bool
}

func (f *fakeScraper) Start(_ context.Context, req session.Request) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, req)
	f.status = session.Status{Active: true, League: "NA3HL"}
	return nil
}

func (f *fakeScraper) Resume(context.Context) error { return f.resumeErr }

func (f *fakeScraper) Stop() bool {
	was := f.status.Active
	f.stopped = true
	return was
}

func (f *fakeScraper) Cleanup() error {
	f.cleaned = true
	return nil
}

func (f *fakeScraper) Status() session.Status {
	if f.panicOn {
		panic("status exploded")
	}
	return f.status
}

func (f *fakeScraper) Results() map[string][]domain.TeamResult { return f.results }

func (f *fakeScraper) Team(id string) (domain.TeamResult, bool) {
	for _, teams := range f.results {
		for _, t := range teams {
			if t.ID == id {
				return t, true
			}
		}
	}
	return domain.TeamResult{}, false
}

func (f *fakeScraper) Metrics() (reconciliation.Metrics, bool) {
	if f.metrics == nil {
		return reconciliation.Metrics{}, false
	}
	return *f.metrics, true
}

type fakeArchive struct {
	teams map[string]domain.TeamResult
	err   error
}

func (a *fakeArchive) ListTeams(_ context.Context, league string) ([]domain.TeamResult, error) {
	var out []domain.TeamResult
	for _, t := range a.teams {
		if t.League == league {
			out = append(out, t)
		}
	}
	return out, a.err
}

func (a *fakeArchive) GetTeam(_ context.Context, id string) (domain.TeamResult, error) {
	if a.err != nil {
		return domain.TeamResult{}, a.err
	}
	t, ok := a.teams[id]
	if !ok {
		return domain.TeamResult{}, errors.Wrapf(store.ErrNotFound, "team %s", id)
	}
	return t, nil
}

func serve(t *testing.T, h *Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	NewRouter(h, []string{"*"}).ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		_ = sonic.Unmarshal(rec.Body.Bytes(), &payload)
	}
	return rec, payload
}

func TestStartScrape(t *testing.T) {
	scraper := &fakeScraper{}
	h := NewHandler(scraper, nil, nil, nil)

	rec, body := serve(t, h, http.MethodPost, "/api/scrape", `{"league_url":"https://x.test/league/na3hl","delay":2,"is_first_league":true}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "Scraping NA3HL", body["message"])
	require.Len(t, scraper.started, 1)
	assert.Equal(t, 2, scraper.started[0].DelaySec)
	assert.True(t, scraper.started[0].FirstLeague)
}

func TestStartScrapeErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		body   string
		status int
	}{
		{"busy", session.ErrScrapeInProgress, `{"league_url":"u"}`, http.StatusConflict},
		{"invalid", errors.Mark(errors.New("league_url required"), session.ErrInvalidRequest), `{}`, http.StatusBadRequest},
		{"empty body", nil, ``, http.StatusBadRequest},
		{"bad json", nil, `{"league_url":`, http.StatusBadRequest},
		{"internal", errors.New("boom"), `{"league_url":"u"}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&fakeScraper{startErr: tc.err}, nil, nil, nil)
			rec, body := serve(t, h, http.MethodPost, "/api/scrape", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestStopAndCleanup(t *testing.T) {
	scraper := &fakeScraper{status: session.Status{Active: true}}
	h := NewHandler(scraper, nil, nil, nil)

	_, body := serve(t, h, http.MethodPost, "/api/stop", "")
	assert.Equal(t, "Stop signal sent", body["status"])

	scraper.status.Active = false
	_, body = serve(t, h, http.MethodPost, "/api/stop", "")
	assert.Equal(t, "No active scraping", body["status"])

	rec, body := serve(t, h, http.MethodPost, "/api/cleanup", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cleanup successful", body["status"])
	assert.True(t, scraper.cleaned)
}

func TestResume(t *testing.T) {
	h := NewHandler(&fakeScraper{resumeErr: session.ErrNothingToResume}, nil, nil, nil)
	rec, body := serve(t, h, http.MethodPost, "/api/resume", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No stopped scraping to resume", body["error"])

	h = NewHandler(&fakeScraper{}, nil, nil, nil)
	rec, _ = serve(t, h, http.MethodPost, "/api/resume", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestTeamsAndTeamLookup(t *testing.T) {
	scraper := &fakeScraper{results: map[string][]domain.TeamResult{
		"NA3HL": {{ID: "1", Name: "Hawks", League: "NA3HL"}},
		"EHL":   {{ID: "2", Name: "Owls", League: "EHL"}},
	}}
	archive := &fakeArchive{teams: map[string]domain.TeamResult{"9": {ID: "9", Name: "Old", League: "NAHL"}}}
	h := NewHandler(scraper, archive, nil, nil)

	_, body := serve(t, h, http.MethodGet, "/api/teams", "")
	assert.Len(t, body, 2)

	_, body = serve(t, h, http.MethodGet, "/api/teams?league=EHL", "")
	assert.Len(t, body, 1)
	assert.Contains(t, body, "EHL")

	rec, _ := serve(t, h, http.MethodGet, "/api/teams?league=NCDC", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, body = serve(t, h, http.MethodGet, "/api/team/1", "")
	assert.Equal(t, "Hawks", body["name"])

	_, body = serve(t, h, http.MethodGet, "/api/team/9", "")
	assert.Equal(t, "Old", body["name"])

	rec, body = serve(t, h, http.MethodGet, "/api/team/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Team not found", body["error"])

	archive.err = errors.New("db down")
	rec, _ = serve(t, h, http.MethodGet, "/api/team/404", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestArchivedLeague(t *testing.T) {
	h := NewHandler(&fakeScraper{}, nil, nil, nil)
	rec, _ := serve(t, h, http.MethodGet, "/api/archive/NAHL", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	archive := &fakeArchive{teams: map[string]domain.TeamResult{"9": {ID: "9", League: "NAHL"}}}
	h = NewHandler(&fakeScraper{}, archive, nil, nil)
	rec, body := serve(t, h, http.MethodGet, "/api/archive/NAHL", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["teams"], 1)
}

func TestMetrics(t *testing.T) {
	h := NewHandler(&fakeScraper{}, nil, nil, nil)
	rec, _ := serve(t, h, http.MethodGet, "/api/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h = NewHandler(&fakeScraper{metrics: &reconciliation.Metrics{Matched: 12}}, nil, nil, nil)
	_, body := serve(t, h, http.MethodGet, "/api/metrics", "")
	assert.EqualValues(t, 12, body["matched"])
}

func TestHealth(t *testing.T) {
	h := NewHandler(&fakeScraper{}, nil, map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	}, nil)
	rec, body := serve(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	h = NewHandler(&fakeScraper{}, nil, map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}, nil)
	rec, body = serve(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewHandler(&fakeScraper{panicOn: true}, nil, nil, nil)
	rec, body := serve(t, h, http.MethodGet, "/api/progress", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(&fakeScraper{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/scrape", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()

	NewRouter(h, []string{"https://dashboard.example.com"}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dashboard.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
