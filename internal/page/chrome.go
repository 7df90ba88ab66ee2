package page

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"

	"github.com/fortuna/rinkscout/internal/platform/logging"
)

// UserAgent is sent by both drivers.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var blockedResources = []string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg", "*.woff", "*.woff2"}

type ChromeOptions struct {
	Headless        bool
	PageLoadTimeout time.Duration
	WaitTimeout     time.Duration
	Logger          *logging.Logger
}

// ChromeDriver renders pages in a headless Chrome controlled over the
// DevTools protocol.
type ChromeDriver struct {
	opts ChromeOptions
	log  *logging.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu        sync.Mutex
	navigated bool
	closed    bool
}

// NewChromeDriver starts the browser. A failure here is fatal for the session.
func NewChromeDriver(opts ChromeOptions) (*ChromeDriver, error) {
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = DefaultPageLoadTimeout
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	startCtx, cancel := context.WithTimeout(browserCtx, opts.PageLoadTimeout)
	defer cancel()
	err := chromedp.Run(startCtx,
		network.Enable(),
		network.SetBlockedURLS(blockedResources),
	)
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, errors.Wrap(err, "failed to start chrome")
	}

	log.Info("chrome driver started", "headless", opts.Headless)
	return &ChromeDriver{
		opts:          opts,
		log:           log,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// run executes actions on the browser tab, bounded by timeout and by ctx.
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return errors.New("chrome driver is closed")
	}

	runCtx, cancel := context.WithTimeout(d.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = d.opts.PageLoadTimeout
	}
	if err := d.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return errors.Wrapf(err, "navigate %s", url)
	}
	d.mu.Lock()
	d.navigated = true
	d.mu.Unlock()

	if err := d.run(ctx, d.opts.WaitTimeout, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return errors.Wrapf(err, "wait for body on %s", url)
	}
	return nil
}

func (d *ChromeDriver) requireNavigated() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.navigated {
		return ErrNotNavigated
	}
	return nil
}

func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	if err := d.requireNavigated(); err != nil {
		return "", err
	}
	var location string
	if err := d.run(ctx, d.opts.WaitTimeout, chromedp.Location(&location)); err != nil {
		return "", errors.Wrap(err, "read location")
	}
	return location, nil
}

func (d *ChromeDriver) Title(ctx context.Context) (string, error) {
	if err := d.requireNavigated(); err != nil {
		return "", err
	}
	var title string
	if err := d.run(ctx, d.opts.WaitTimeout, chromedp.Title(&title)); err != nil {
		return "", errors.Wrap(err, "read title")
	}
	return title, nil
}

func (d *ChromeDriver) PageSource(ctx context.Context) (string, error) {
	if err := d.requireNavigated(); err != nil {
		return "", err
	}
	var html string
	if err := d.run(ctx, d.opts.WaitTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", errors.Wrap(err, "read page source")
	}
	if html == "" {
		return "", errors.New("empty HTML content returned")
	}
	return html, nil
}

// FindAll snapshots the rendered DOM and queries it, so script-built content
// present at call time is visible.
func (d *ChromeDriver) FindAll(ctx context.Context, query string) ([]Element, error) {
	html, err := d.PageSource(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}
	return snap.FindAll(query)
}

func (d *ChromeDriver) Screenshot(ctx context.Context, path string) error {
	if err := d.requireNavigated(); err != nil {
		return err
	}
	var buf []byte
	if err := d.run(ctx, d.opts.PageLoadTimeout, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return errors.Wrap(err, "capture screenshot")
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return errors.Wrapf(err, "write screenshot %s", path)
	}
	return nil
}

// Close releases the browser. Safe to call more than once.
func (d *ChromeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.browserCancel()
	d.allocCancel()
	d.log.Info("chrome driver closed")
	return nil
}
