package pwdriver

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/roach88/uiscenario/internal/driver"
)

// Element wraps an element handle from the page state it was found in.
type Element struct {
	d      *Driver
	handle playwright.ElementHandle
	gen    uint64
}

func (e *Element) check() error {
	if e.d.closed.Load() {
		return driver.ErrSessionClosed
	}
	if e.gen != e.d.gen.Load() {
		return driver.ErrStaleElement
	}
	return nil
}

// Text implements driver.Element. Hidden elements have no text.
func (e *Element) Text(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	visible, err := e.handle.IsVisible()
	if err != nil || !visible {
		return "", translate(err)
	}
	text, err := e.handle.InnerText()
	return text, translate(err)
}

// Attribute implements driver.Element. Like a WebDriver client, it reports
// link properties (absolute href/src) rather than the raw markup.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := e.check(); err != nil {
		return "", false, err
	}
	v, err := e.handle.Evaluate(`(el, name) => {
		if ((name === "href" || name === "src" || name === "action") && el.hasAttribute(name)) {
			return el[name];
		}
		return el.getAttribute(name);
	}`, name)
	if err != nil {
		return "", false, translate(err)
	}
	if v == nil {
		return "", false, nil
	}
	return fmt.Sprint(v), true, nil
}

// Displayed implements driver.Element.
func (e *Element) Displayed(ctx context.Context) (bool, error) {
	if err := e.check(); err != nil {
		return false, err
	}
	visible, err := e.handle.IsVisible()
	return visible, translate(err)
}

// Click implements driver.Element and waits for any navigation it
// triggered to reach DOMContentLoaded.
func (e *Element) Click(ctx context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	if err := e.handle.Click(); err != nil {
		return translate(err)
	}
	return translate(e.d.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}))
}

// Clear implements driver.Element.
func (e *Element) Clear(ctx context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	return translate(e.handle.Fill(""))
}

// SendKeys implements driver.Element by typing after the current value.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	if err := e.check(); err != nil {
		return err
	}
	return translate(e.handle.Type(text))
}
