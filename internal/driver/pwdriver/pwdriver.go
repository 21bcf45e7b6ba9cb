// Package pwdriver is a driver.Driver backed by a real browser through
// Playwright.
//
// A Launcher owns the Playwright process and one Chromium instance. Each
// session it opens gets a fresh browser context, so cookies and storage
// never leak between scenarios.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/roach88/uiscenario/internal/driver"
	"github.com/roach88/uiscenario/internal/locator"
)

// DefaultTimeout bounds every individual browser operation.
const DefaultTimeout = 5 * time.Second

// Options configures the browser.
type Options struct {
	Headless bool
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Launcher starts Chromium once and opens isolated sessions on it.
type Launcher struct {
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser

	mu     sync.Mutex
	closed bool
}

// Launch starts Playwright and Chromium. The browser and driver must
// already be installed (playwright install chromium).
func Launch(opts Options) (*Launcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	opts.Logger.Debug("browser launched", "headless", opts.Headless, "version", browser.Version())
	return &Launcher{opts: opts, pw: pw, browser: browser}, nil
}

// Open implements driver.Factory.
func (l *Launcher) Open(ctx context.Context) (driver.Driver, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, driver.ErrSessionClosed
	}

	bctx, err := l.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	timeoutMS := float64(l.opts.Timeout.Milliseconds())
	bctx.SetDefaultTimeout(timeoutMS)
	bctx.SetDefaultNavigationTimeout(timeoutMS)

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}

	d := &Driver{bctx: bctx, page: page, timeout: timeoutMS, logger: l.opts.Logger}
	page.OnFrameNavigated(func(f playwright.Frame) {
		if f == page.MainFrame() {
			d.gen.Add(1)
		}
	})
	return d, nil
}

// Close shuts down the browser and the Playwright process.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return errors.Join(l.browser.Close(), l.pw.Stop())
}

// Driver is one browser context with a single page.
type Driver struct {
	bctx    playwright.BrowserContext
	page    playwright.Page
	timeout float64
	logger  *slog.Logger

	gen    atomic.Uint64 // incremented on every main-frame navigation
	closed atomic.Bool
}

// Navigate implements driver.Driver.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if d.closed.Load() {
		return driver.ErrSessionClosed
	}
	resp, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(d.timeout),
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if resp != nil {
		d.logger.Debug("document loaded", "url", d.page.URL(), "status", resp.Status())
	}
	return nil
}

// CurrentURL implements driver.Driver.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if d.closed.Load() {
		return "", driver.ErrSessionClosed
	}
	return d.page.URL(), nil
}

// Title implements driver.Driver.
func (d *Driver) Title(ctx context.Context) (string, error) {
	if d.closed.Load() {
		return "", driver.ErrSessionClosed
	}
	title, err := d.page.Title()
	if err != nil {
		return "", translate(err)
	}
	return title, nil
}

// FindAll implements driver.Driver.
func (d *Driver) FindAll(ctx context.Context, loc locator.Locator) ([]driver.Element, error) {
	if d.closed.Load() {
		return nil, driver.ErrSessionClosed
	}
	gen := d.gen.Load()
	handles, err := d.page.Locator(Selector(loc)).ElementHandles()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc, translate(err))
	}
	elems := make([]driver.Element, len(handles))
	for i, h := range handles {
		elems[i] = &Element{d: d, handle: h, gen: gen}
	}
	return elems, nil
}

// Close implements driver.Driver.
func (d *Driver) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	return d.bctx.Close()
}

// Selector renders loc in Playwright selector syntax.
func Selector(loc locator.Locator) string {
	q := loc.Query()
	if q.Lang == locator.LangXPath {
		return "xpath=" + q.Expr
	}
	return "css=" + q.Expr
}

// translate maps Playwright errors about destroyed nodes and pages onto the
// driver sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not attached"),
		strings.Contains(msg, "Execution context was destroyed"),
		strings.Contains(msg, "JSHandle is disposed"):
		return fmt.Errorf("%w: %v", driver.ErrStaleElement, err)
	case errors.Is(err, playwright.ErrTargetClosed):
		return fmt.Errorf("%w: %v", driver.ErrSessionClosed, err)
	}
	return err
}
