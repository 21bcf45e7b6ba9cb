package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/uiscenario/internal/driver"
	"github.com/roach88/uiscenario/internal/locator"
)

// FakeElement is a scripted element on a FakePage.
type FakeElement struct {
	Text   string
	Attrs  map[string]string
	Hidden bool

	// ShowAfter makes a hidden element report displayed once Displayed has
	// been called this many times.
	ShowAfter int

	// OnClick runs when the element is clicked, typically to navigate.
	OnClick func(d *FakeDriver) error

	checks int
}

// FakePage is a scripted document. Elements are keyed by locator.String().
type FakePage struct {
	Title    string
	Elements map[string][]*FakeElement
}

// FakeDriver is an in-memory driver.Driver over scripted pages.
// Element handles go stale on every navigation, as with a real browser.
type FakeDriver struct {
	mu     sync.Mutex
	pages  map[string]*FakePage
	url    string
	gen    int
	closed bool
	calls  []string

	// CloseErr is returned from Close, after the close is recorded.
	CloseErr error
}

// NewFakeDriver creates a driver over the given pages keyed by URL.
func NewFakeDriver(pages map[string]*FakePage) *FakeDriver {
	return &FakeDriver{pages: pages}
}

// Navigate implements driver.Driver.
func (d *FakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "navigate "+url)
	if d.closed {
		return driver.ErrSessionClosed
	}
	if _, ok := d.pages[url]; !ok {
		return fmt.Errorf("navigate %s: 404 not found", url)
	}
	d.url = url
	d.gen++
	return nil
}

// CurrentURL implements driver.Driver.
func (d *FakeDriver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", driver.ErrSessionClosed
	}
	return d.url, nil
}

// Title implements driver.Driver.
func (d *FakeDriver) Title(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", driver.ErrSessionClosed
	}
	if page := d.pages[d.url]; page != nil {
		return page.Title, nil
	}
	return "", nil
}

// FindAll implements driver.Driver.
func (d *FakeDriver) FindAll(ctx context.Context, loc locator.Locator) ([]driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "find "+loc.String())
	if d.closed {
		return nil, driver.ErrSessionClosed
	}
	page := d.pages[d.url]
	if page == nil {
		return nil, nil
	}
	var out []driver.Element
	for _, el := range page.Elements[loc.String()] {
		out = append(out, &fakeHandle{d: d, el: el, gen: d.gen})
	}
	return out, nil
}

// Close implements driver.Driver.
func (d *FakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "close")
	d.closed = true
	return d.CloseErr
}

// Calls returns the operations performed, in order.
func (d *FakeDriver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// CloseCount returns how many times Close was called.
func (d *FakeDriver) CloseCount() int {
	n := 0
	for _, c := range d.Calls() {
		if c == "close" {
			n++
		}
	}
	return n
}

type fakeHandle struct {
	d   *FakeDriver
	el  *FakeElement
	gen int
}

func (h *fakeHandle) check() error {
	if h.d.closed {
		return driver.ErrSessionClosed
	}
	if h.gen != h.d.gen {
		return driver.ErrStaleElement
	}
	return nil
}

func (h *fakeHandle) Text(ctx context.Context) (string, error) {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	if err := h.check(); err != nil {
		return "", err
	}
	return h.el.Text, nil
}

func (h *fakeHandle) Attribute(ctx context.Context, name string) (string, bool, error) {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	if err := h.check(); err != nil {
		return "", false, err
	}
	v, ok := h.el.Attrs[name]
	return v, ok, nil
}

func (h *fakeHandle) Displayed(ctx context.Context) (bool, error) {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	if err := h.check(); err != nil {
		return false, err
	}
	if !h.el.Hidden {
		return true, nil
	}
	h.el.checks++
	return h.el.ShowAfter > 0 && h.el.checks >= h.el.ShowAfter, nil
}

func (h *fakeHandle) Click(ctx context.Context) error {
	h.d.mu.Lock()
	if err := h.check(); err != nil {
		h.d.mu.Unlock()
		return err
	}
	h.d.calls = append(h.d.calls, "click")
	onClick := h.el.OnClick
	h.d.mu.Unlock()

	if onClick != nil {
		return onClick(h.d)
	}
	return nil
}

func (h *fakeHandle) Clear(ctx context.Context) error {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	if err := h.check(); err != nil {
		return err
	}
	h.d.calls = append(h.d.calls, "clear")
	if h.el.Attrs == nil {
		h.el.Attrs = map[string]string{}
	}
	h.el.Attrs["value"] = ""
	return nil
}

func (h *fakeHandle) SendKeys(ctx context.Context, text string) error {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	if err := h.check(); err != nil {
		return err
	}
	h.d.calls = append(h.d.calls, "type "+text)
	if h.el.Attrs == nil {
		h.el.Attrs = map[string]string{}
	}
	h.el.Attrs["value"] += text
	return nil
}

// FakeFactory opens a fresh FakeDriver per session.
type FakeFactory struct {
	mu     sync.Mutex
	build  func() *FakeDriver
	opened []*FakeDriver

	// OpenErr, when set, is returned from every Open.
	OpenErr error
}

// NewFakeFactory creates a factory calling build for each session.
func NewFakeFactory(build func() *FakeDriver) *FakeFactory {
	return &FakeFactory{build: build}
}

// Open implements driver.Factory.
func (f *FakeFactory) Open(ctx context.Context) (driver.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	d := f.build()
	f.opened = append(f.opened, d)
	return d, nil
}

// Drivers returns every driver opened so far.
func (f *FakeFactory) Drivers() []*FakeDriver {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeDriver, len(f.opened))
	copy(out, f.opened)
	return out
}
