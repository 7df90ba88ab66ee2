// Package pagetest provides an in-memory page.Driver for tests.
package pagetest

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/rinkscout/internal/page"
)

var ErrNoPage = errors.New("pagetest: no page registered")

// Driver serves registered HTML by URL and records every navigation.
type Driver struct {
	mu        sync.Mutex
	pages     map[string]string
	redirects map[string]string
	failures  map[string]int
	visits    []string

	current string
	snap    *page.Snapshot
	source  string
	closed  bool

	// OnNavigate, when set, runs before each navigation is served.
	OnNavigate func(url string)
}

func New() *Driver {
	return &Driver{
		pages:     make(map[string]string),
		redirects: make(map[string]string),
		failures:  make(map[string]int),
	}
}

// Set registers html as the content of url.
func (d *Driver) Set(url, html string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages[url] = html
	return d
}

// Redirect makes navigation to from land on to.
func (d *Driver) Redirect(from, to string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.redirects[from] = to
	return d
}

// FailTimes makes the next n navigations to url fail.
func (d *Driver) FailTimes(url string, n int) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[url] = n
	return d
}

func (d *Driver) Visits() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.visits...)
}

func (d *Driver) VisitCount(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, v := range d.visits {
		if v == url {
			n++
		}
	}
	return n
}

func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) Navigate(ctx context.Context, url string, _ time.Duration) error {
	if hook := d.OnNavigate; hook != nil {
		hook(url)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.visits = append(d.visits, url)

	if n := d.failures[url]; n > 0 {
		d.failures[url] = n - 1
		return errors.Newf("pagetest: injected failure loading %s", url)
	}

	target := url
	if to, ok := d.redirects[url]; ok {
		target = to
	}
	html, ok := d.pages[target]
	if !ok {
		return errors.Wrapf(ErrNoPage, "%s", target)
	}
	snap, err := page.ParseHTML(html)
	if err != nil {
		return err
	}
	d.current, d.snap, d.source = target, snap, html
	return nil
}

func (d *Driver) loaded() (*page.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap == nil {
		return nil, page.ErrNotNavigated
	}
	return d.snap, nil
}

func (d *Driver) CurrentURL(context.Context) (string, error) {
	if _, err := d.loaded(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, nil
}

func (d *Driver) Title(context.Context) (string, error) {
	snap, err := d.loaded()
	if err != nil {
		return "", err
	}
	return snap.Title(), nil
}

func (d *Driver) FindAll(ctx context.Context, query string) ([]page.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := d.loaded()
	if err != nil {
		return nil, err
	}
	return snap.FindAll(query)
}

func (d *Driver) PageSource(context.Context) (string, error) {
	if _, err := d.loaded(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.source, nil
}

// Screenshot writes a placeholder file so diagnostics paths can be asserted.
func (d *Driver) Screenshot(_ context.Context, path string) error {
	if _, err := d.loaded(); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("pagetest screenshot"), 0o644)
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var _ page.Driver = (*Driver)(nil)
