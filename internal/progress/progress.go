// Package progress defines the events a scrape reports while it runs.
package progress

import (
	"sync"
	"time"

	"github.com/fortuna/rinkscout/internal/domain"
)

type Phase string

const (
	PhaseInfo       Phase = "info"
	PhaseStarting   Phase = "starting"
	PhaseRoster     Phase = "roster"
	PhaseCompleted  Phase = "completed"
	PhaseBatchPause Phase = "batch_pause"
	PhaseETA        Phase = "eta"
	PhaseFinished   Phase = "finished"
	PhaseStopped    Phase = "stopped"
	PhaseError      Phase = "error"
)

// TeamProgress describes the team currently being worked on.
type TeamProgress struct {
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name"`
	League       string          `json:"league,omitempty"`
	Status       Phase           `json:"status"`
	Players      []domain.Player `json:"players,omitempty"`
	CurrentCount int             `json:"current_count,omitempty"`
	TotalCount   int             `json:"total_count,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// Event is one progress notification. Events are built fresh for every
// state change and never modified afterwards.
type Event struct {
	Message     string              `json:"message"`
	Current     int                 `json:"current"`
	Total       int                 `json:"total"`
	Percentage  float64             `json:"percentage"`
	Completed   bool                `json:"completed"`
	Stopped     bool                `json:"stopped"`
	Phase       Phase               `json:"phase"`
	CurrentTeam *TeamProgress       `json:"current_team,omitempty"`
	LiveTeams   []domain.TeamResult `json:"live_teams"`
	At          time.Time           `json:"timestamp"`
}

// Percent computes a 0-100 completion ratio rounded to one decimal.
func Percent(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(current) / float64(total) * 100
	return float64(int(p*10+0.5)) / 10
}

// Observer receives events synchronously on the scraping goroutine. It must
// not block for long.
type Observer interface {
	OnProgress(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnProgress(e Event) { f(e) }

// Multi fans an event out to several observers in order.
type Multi []Observer

func (m Multi) OnProgress(e Event) {
	for _, obs := range m {
		if obs != nil {
			obs.OnProgress(e)
		}
	}
}

// Recorder keeps every event it sees. Useful for tests and for status endpoints
// that want the latest event.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) OnProgress(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Last returns the most recent event.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

// Phases lists the phase of every recorded event.
func (r *Recorder) Phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Phase, len(r.events))
	for i, e := range r.events {
		out[i] = e.Phase
	}
	return out
}
