package page

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"

	"github.com/fortuna/rinkscout/internal/platform/logging"
)

type HTTPOptions struct {
	PageLoadTimeout time.Duration
	Logger          *logging.Logger
	// Client overrides the underlying HTTP client, mainly for tests.
	Client *http.Client
}

// HTTPDriver fetches server-rendered pages without a browser. Pages that
// build their content in script render empty under this driver.
type HTTPDriver struct {
	client  *resty.Client
	timeout time.Duration
	log     *logging.Logger

	mu      sync.Mutex
	current string
	snap    *Snapshot
	source  string
}

func NewHTTPDriver(opts HTTPOptions) *HTTPDriver {
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = DefaultPageLoadTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	var client *resty.Client
	if opts.Client != nil {
		client = resty.NewWithClient(opts.Client)
	} else {
		client = resty.New()
	}
	client.
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &HTTPDriver{client: client, timeout: opts.PageLoadTimeout, log: log}
}

func (d *HTTPDriver) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = d.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := d.client.R().SetContext(reqCtx).Get(url)
	if err != nil {
		return errors.Wrapf(err, "fetch %s", url)
	}

	final := url
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}

	body := resp.String()
	snap, err := ParseHTML(body)
	if err != nil {
		return err
	}

	if resp.IsError() {
		d.log.Warn("page returned error status", "url", url, "status", resp.StatusCode())
	}

	d.mu.Lock()
	d.current = final
	d.snap = snap
	d.source = body
	d.mu.Unlock()
	return nil
}

func (d *HTTPDriver) loaded() (*Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap == nil {
		return nil, ErrNotNavigated
	}
	return d.snap, nil
}

func (d *HTTPDriver) CurrentURL(ctx context.Context) (string, error) {
	if _, err := d.loaded(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, nil
}

func (d *HTTPDriver) Title(ctx context.Context) (string, error) {
	snap, err := d.loaded()
	if err != nil {
		return "", err
	}
	return snap.Title(), nil
}

func (d *HTTPDriver) FindAll(ctx context.Context, query string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := d.loaded()
	if err != nil {
		return nil, err
	}
	return snap.FindAll(query)
}

func (d *HTTPDriver) PageSource(ctx context.Context) (string, error) {
	if _, err := d.loaded(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.source, nil
}

func (d *HTTPDriver) Screenshot(context.Context, string) error {
	return ErrUnsupported
}

func (d *HTTPDriver) Close() error {
	return nil
}
