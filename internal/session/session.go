// Package session owns the page driver lifecycle and the scrape controller
// that the HTTP API and the scheduler drive.
package session

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/rinkscout/internal/page"
	"github.com/fortuna/rinkscout/internal/platform/logging"
)

var (
	ErrBusy     = errors.New("session is busy")
	ErrDisposed = errors.New("session is disposed")
)

type State int

const (
	StateUninitialized State = iota
	StateReady
	StateBusy
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// DriverFactory starts a page driver. It is called at most once per Session.
type DriverFactory func(ctx context.Context) (page.Driver, error)

// Session guards exclusive use of one driver:
//
//	Uninitialized -> Ready <-> Busy -> Disposed
//
// The driver is created on the first Begin.
type Session struct {
	factory DriverFactory
	log     *logging.Logger

	mu     sync.Mutex
	state  State
	driver page.Driver
}

func New(factory DriverFactory, log *logging.Logger) *Session {
	if log == nil {
		log = logging.Default()
	}
	return &Session{factory: factory, log: log.With("component", "session")}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin marks the session busy and returns its driver, starting it if needed.
// A driver start failure leaves the session uninitialized.
func (s *Session) Begin(ctx context.Context) (page.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateBusy:
		return nil, ErrBusy
	case StateDisposed:
		return nil, ErrDisposed
	case StateUninitialized:
		driver, err := s.factory(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "initialize page driver")
		}
		s.driver = driver
		s.log.Info("page driver initialized")
	}

	s.state = StateBusy
	return s.driver, nil
}

// End returns a busy session to ready.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateBusy {
		s.state = StateReady
	}
}

// Dispose releases the driver. Further Begin calls fail with ErrDisposed.
func (s *Session) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return nil
	}
	s.state = StateDisposed
	if s.driver == nil {
		return nil
	}
	err := s.driver.Close()
	s.driver = nil
	if err != nil {
		return errors.Wrap(err, "close page driver")
	}
	s.log.Info("page driver released")
	return nil
}
