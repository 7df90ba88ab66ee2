package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/rinkscout/internal/domain"
	"github.com/fortuna/rinkscout/internal/session"
)

type fakeRunner struct {
	mu       sync.Mutex
	requests []session.Request
	results  map[string][]domain.TeamResult
	fail     map[string]bool
	stops    int
	onStart  func(req session.Request)
}

func (f *fakeRunner) Start(_ context.Context, req session.Request) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fail := f.fail[req.LeagueName]
	hook := f.onStart
	f.mu.Unlock()
	if fail {
		return session.ErrScrapeInProgress
	}
	if hook != nil {
		hook(req)
	}
	return nil
}

func (f *fakeRunner) Wait() {}

func (f *fakeRunner) Stop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return true
}

func (f *fakeRunner) Results() map[string][]domain.TeamResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results
}

type sleepLog struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.pauses = append(s.pauses, d)
	s.mu.Unlock()
	return ctx.Err()
}

func team(id string, players int) domain.TeamResult {
	return domain.TeamResult{ID: id, Name: "Team " + id, Players: make([]domain.Player, players)}
}

func TestSweepRunsLeaguesInOrder(t *testing.T) {
	runner := &fakeRunner{
		results: map[string][]domain.TeamResult{
			"NA3HL": {team("1", 2), team("2", 1)},
			"NAHL":  {team("9", 3)},
		},
		fail: map[string]bool{"EHL": true},
	}
	leagues := []League{
		{Name: "NA3HL", URL: "https://x.test/league/na3hl", MaxTeams: 2},
		{Name: "EHL", URL: "https://x.test/league/ehl"},
		{Name: "NCDC", URL: "https://x.test/league/ncdc"},
		{Name: "NAHL", URL: "https://x.test/league/nahl"},
	}
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = dir
	pauses := &sleepLog{}
	clock := time.Date(2025, 10, 19, 3, 0, 0, 0, time.UTC)

	s := New(runner, leagues, cfg, WithSleep(pauses.sleep), WithClock(func() time.Time { return clock }))
	got, err := s.Sweep(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Len(t, got["NA3HL"], 2)
	assert.Len(t, got["NAHL"], 1)

	require.Len(t, runner.requests, 4)
	assert.True(t, runner.requests[0].FirstLeague)
	assert.Equal(t, 2, runner.requests[0].MaxTeams)
	assert.Equal(t, "2025-2026", runner.requests[0].Season)
	assert.False(t, runner.requests[3].FirstLeague)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, pauses.pauses)

	assert.FileExists(t, filepath.Join(dir, "scraped_data_20251019_030000.json"))
	assert.FileExists(t, filepath.Join(dir, "hockey_stats_20251019_030000_NA3HL.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "hockey_stats_20251019_030000_EHL.csv"))
}

func TestSweepCancelStopsRunner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &fakeRunner{results: map[string][]domain.TeamResult{"A": {team("1", 1)}}}
	runner.onStart = func(session.Request) { cancel() }

	cfg := DefaultConfig()
	cfg.DataDir = ""
	s := New(runner, []League{{Name: "A", URL: "u"}, {Name: "B", URL: "u"}}, cfg, WithSleep((&sleepLog{}).sleep))
	got, err := s.Sweep(ctx)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, got, 1)
	assert.Len(t, runner.requests, 1)
	assert.Eventually(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return runner.stops == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRunWaitsForNextSlot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &fakeRunner{}
	var waits []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		if len(waits) == 2 {
			cancel()
		}
		return ctx.Err()
	}
	now := time.Date(2025, 10, 17, 3, 0, 0, 0, time.UTC) // Friday
	cfg := DefaultConfig()
	cfg.DataDir = ""

	s := New(runner, []League{{Name: "A", URL: "u"}}, cfg, WithSleep(sleep), WithClock(func() time.Time { return now }))
	require.NoError(t, s.Run(ctx))

	assert.Equal(t, []time.Duration{48 * time.Hour, 48 * time.Hour}, waits)
	assert.Len(t, runner.requests, 1)
}

func TestNextRun(t *testing.T) {
	loc := time.UTC
	sunday3 := time.Date(2025, 10, 19, 3, 0, 0, 0, loc)

	assert.Equal(t, sunday3, NextRun(time.Date(2025, 10, 17, 12, 0, 0, 0, loc), time.Sunday, 3))
	assert.Equal(t, sunday3, NextRun(time.Date(2025, 10, 19, 2, 59, 0, 0, loc), time.Sunday, 3))
	assert.Equal(t, sunday3.AddDate(0, 0, 7), NextRun(sunday3, time.Sunday, 3))
	assert.Equal(t, sunday3.AddDate(0, 0, 7), NextRun(time.Date(2025, 10, 19, 4, 0, 0, 0, loc), time.Sunday, 3))
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday(" Sunday ")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	d, err = ParseWeekday("wed")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, d)

	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}

func TestLoadLeagues(t *testing.T) {
	leagues, err := LoadLeagues("")
	require.NoError(t, err)
	assert.Len(t, leagues, 7)
	assert.Equal(t, "NA3HL", leagues[0].Name)

	path := filepath.Join(t.TempDir(), "leagues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
leagues:
  - name: NA3HL
    url: https://www.eliteprospects.com/league/na3hl
    max_teams: 4
  - name: EHL
    url: https://www.eliteprospects.com/league/ehl
`), 0o644))

	leagues, err = LoadLeagues(path)
	require.NoError(t, err)
	assert.Equal(t, []League{
		{Name: "NA3HL", URL: "https://www.eliteprospects.com/league/na3hl", MaxTeams: 4},
		{Name: "EHL", URL: "https://www.eliteprospects.com/league/ehl"},
	}, leagues)

	_, err = ParseLeagues([]byte("leagues:\n  - name: X\n"))
	assert.Error(t, err)
	_, err = ParseLeagues([]byte("leagues: []\n"))
	assert.Error(t, err)
}
