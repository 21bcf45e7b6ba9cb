// Package htmldriver is a driver.Driver backed by plain HTTP and an HTML
// parser instead of a browser.
//
// It loads documents with a cookie-carrying http.Client, evaluates CSS
// locators with goquery and XPath locators with htmlquery, follows links,
// and submits forms. Scripts are not executed and stylesheets are not
// applied: visibility is derived from markup only (hidden attributes,
// inline display/visibility styles, hidden inputs, non-rendered elements).
// That is enough for server-rendered pages and makes scenarios runnable
// where no browser can be installed.
package htmldriver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/roach88/uiscenario/internal/driver"
	"github.com/roach88/uiscenario/internal/locator"
)

const (
	defaultUserAgent = "uiscenario/1 (+htmldriver)"
	maxBodyBytes     = 10 << 20
)

// Options configures sessions opened by a Factory.
type Options struct {
	Timeout   time.Duration     // Per-request timeout; zero means none
	UserAgent string            // Sent on every request
	Transport http.RoundTripper // Nil uses http.DefaultTransport
	Logger    *slog.Logger      // Nil discards
}

// Factory opens independent sessions, each with its own cookie jar.
type Factory struct {
	opts Options
}

// NewFactory creates a factory.
func NewFactory(opts Options) *Factory {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Factory{opts: opts}
}

// Open implements driver.Factory.
func (f *Factory) Open(ctx context.Context) (driver.Driver, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Driver{
		client: &http.Client{
			Jar:       jar,
			Timeout:   f.opts.Timeout,
			Transport: f.opts.Transport,
		},
		userAgent: f.opts.UserAgent,
		logger:    f.opts.Logger,
	}, nil
}

// Driver is one HTTP session. Safe for concurrent use, although sessions
// are normally driven by a single scenario.
type Driver struct {
	mu        sync.Mutex
	client    *http.Client
	userAgent string
	logger    *slog.Logger

	url    *url.URL
	doc    *html.Node
	gen    uint64 // incremented on every document load
	closed bool
}

// Navigate implements driver.Driver.
func (d *Driver) Navigate(ctx context.Context, rawURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return driver.ErrSessionClosed
	}
	return d.navigateLocked(ctx, rawURL)
}

// CurrentURL implements driver.Driver.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", driver.ErrSessionClosed
	}
	if d.url == nil {
		return "about:blank", nil
	}
	return d.url.String(), nil
}

// Title implements driver.Driver.
func (d *Driver) Title(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", driver.ErrSessionClosed
	}
	if d.doc == nil {
		return "", nil
	}
	node := htmlquery.FindOne(d.doc, "//head/title")
	if node == nil {
		return "", nil
	}
	return collapse(htmlquery.InnerText(node)), nil
}

// FindAll implements driver.Driver.
func (d *Driver) FindAll(ctx context.Context, loc locator.Locator) ([]driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, driver.ErrSessionClosed
	}
	if d.doc == nil {
		return []driver.Element{}, nil
	}

	nodes, err := query(d.doc, loc.Query())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc, err)
	}
	elems := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		elems = append(elems, &Element{d: d, node: n, gen: d.gen})
	}
	return elems, nil
}

// Close implements driver.Driver.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.doc = nil
	d.client.CloseIdleConnections()
	return nil
}

func query(doc *html.Node, q locator.Query) ([]*html.Node, error) {
	if q.Lang == locator.LangXPath {
		nodes, err := htmlquery.QueryAll(doc, q.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", q.Expr, err)
		}
		return nodes, nil
	}
	sel, err := cascadia.Compile(q.Expr)
	if err != nil {
		return nil, fmt.Errorf("invalid css selector %q: %w", q.Expr, err)
	}
	return goquery.NewDocumentFromNode(doc).FindMatcher(sel).Nodes, nil
}

// resolve interprets ref relative to the current document.
func (d *Driver) resolve(ref string) (*url.URL, error) {
	target, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", ref, err)
	}
	if d.url != nil {
		target = d.url.ResolveReference(target)
	}
	if !target.IsAbs() {
		return nil, fmt.Errorf("cannot resolve relative url %q without a loaded page", ref)
	}
	return target, nil
}

func (d *Driver) navigateLocked(ctx context.Context, rawURL string) error {
	target, err := d.resolve(rawURL)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	return d.executeLocked(req)
}

// executeLocked sends req, following redirects, and loads the final
// response as the current document.
func (d *Driver) executeLocked(req *http.Request) error {
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	doc, err := htmlquery.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("parse %s: %w", resp.Request.URL, err)
	}

	d.url = resp.Request.URL
	d.doc = doc
	d.gen++

	d.logger.Debug("document loaded",
		"method", req.Method,
		"url", d.url.String(),
		"status", resp.StatusCode,
	)
	return nil
}
