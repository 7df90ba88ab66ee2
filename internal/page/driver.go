// Package page abstracts the browser that renders league and team pages.
//
// Drivers expose a small capability set: navigate, read the current URL and
// title, query elements with CSS selectors, capture diagnostics. Everything
// above this package works against the Driver interface, so scraping logic is
// testable against in-memory pages.
package page

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnsupported is returned by drivers that cannot provide a capability
	// (for example screenshots without a real browser).
	ErrUnsupported = errors.New("page: operation not supported by driver")

	// ErrNotNavigated is returned when a page query runs before any navigation.
	ErrNotNavigated = errors.New("page: no page loaded")
)

const (
	DefaultPageLoadTimeout = 30 * time.Second
	DefaultWaitTimeout     = 15 * time.Second
)

// Finder runs a CSS query and returns the matching elements in document order.
type Finder interface {
	FindAll(ctx context.Context, query string) ([]Element, error)
}

// Driver is a single page-rendering session. Implementations are not safe for
// concurrent use; one scrape owns one driver.
type Driver interface {
	Finder

	// Navigate loads url and waits until the document body is ready. A zero
	// timeout means the driver's configured page-load timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, path string) error
	PageSource(ctx context.Context) (string, error)
	Close() error
}

// Element is a node of a rendered page.
type Element interface {
	// Text is the element's visible text with runs of whitespace collapsed.
	Text() string
	Attr(name string) (string, bool)
	// Find returns descendants matching query. An invalid query matches nothing.
	Find(query string) []Element
	// Closest returns the nearest ancestor-or-self matching query.
	Closest(query string) (Element, bool)
}

// Within scopes queries to the descendants of el.
func Within(el Element) Finder {
	return scopedFinder{el: el}
}

type scopedFinder struct {
	el Element
}

func (s scopedFinder) FindAll(ctx context.Context, query string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := compile(query); err != nil {
		return nil, err
	}
	return s.el.Find(query), nil
}
