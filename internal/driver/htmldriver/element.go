package htmldriver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/roach88/uiscenario/internal/driver"
)

// Element is a node of the document that was current when it was found.
type Element struct {
	d    *Driver
	node *html.Node
	gen  uint64
}

// checkLocked fails if the session closed or the document was replaced.
func (e *Element) checkLocked() error {
	if e.d.closed {
		return driver.ErrSessionClosed
	}
	if e.gen != e.d.gen {
		return driver.ErrStaleElement
	}
	return nil
}

// Text implements driver.Element. Hidden elements have no text.
func (e *Element) Text(ctx context.Context) (string, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.checkLocked(); err != nil {
		return "", err
	}
	if !displayed(e.node) {
		return "", nil
	}
	var b strings.Builder
	renderedText(&b, e.node)
	return collapse(b.String()), nil
}

// Attribute implements driver.Element. Link and source attributes are
// resolved to absolute URLs, as a browser reports them.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.checkLocked(); err != nil {
		return "", false, err
	}
	val, ok := getAttr(e.node, name)
	if !ok {
		return "", false, nil
	}
	if (name == "href" || name == "src" || name == "action") && e.d.url != nil {
		if ref, err := url.Parse(strings.TrimSpace(val)); err == nil {
			val = e.d.url.ResolveReference(ref).String()
		}
	}
	return val, true, nil
}

// Displayed implements driver.Element.
func (e *Element) Displayed(ctx context.Context) (bool, error) {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.checkLocked(); err != nil {
		return false, err
	}
	return displayed(e.node), nil
}

// Click implements driver.Element: follows links, toggles checkboxes and
// radios, and submits the enclosing form from submit buttons.
func (e *Element) Click(ctx context.Context) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.checkLocked(); err != nil {
		return err
	}

	if a := closest(e.node, "a"); a != nil {
		href, _ := getAttr(a, "href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return nil
		}
		return e.d.navigateLocked(ctx, href)
	}

	if tag(e.node) == "input" {
		switch inputType(e.node) {
		case "checkbox":
			if _, checked := getAttr(e.node, "checked"); checked {
				removeAttr(e.node, "checked")
			} else {
				setAttr(e.node, "checked", "checked")
			}
			return nil
		case "radio":
			if name, ok := getAttr(e.node, "name"); ok {
				scope := closest(e.node, "form")
				if scope == nil {
					scope = root(e.node)
				}
				for _, r := range radioGroup(scope, name) {
					removeAttr(r, "checked")
				}
			}
			setAttr(e.node, "checked", "checked")
			return nil
		}
	}

	if submitter := submitButton(e.node); submitter != nil {
		if form := closest(submitter, "form"); form != nil {
			return e.d.submitLocked(ctx, form, submitter)
		}
	}
	return nil
}

// Clear implements driver.Element.
func (e *Element) Clear(ctx context.Context) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.checkLocked(); err != nil {
		return err
	}
	if !editable(e.node) {
		return fmt.Errorf("clear <%s>: element is not editable", tag(e.node))
	}
	setValue(e.node, "")
	return nil
}

// SendKeys implements driver.Element by appending text to the value.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	if err := e.checkLocked(); err != nil {
		return err
	}
	if !editable(e.node) {
		return fmt.Errorf("send keys to <%s>: element is not editable", tag(e.node))
	}
	setValue(e.node, value(e.node)+text)
	return nil
}

// submitLocked serializes form fields and sends the request.
func (d *Driver) submitLocked(ctx context.Context, form, submitter *html.Node) error {
	action, _ := getAttr(form, "action")
	method := strings.ToUpper(strings.TrimSpace(htmlquery.SelectAttr(form, "method")))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	data := url.Values{}
	for _, field := range htmlquery.Find(form, ".//input | .//textarea | .//select") {
		name, ok := getAttr(field, "name")
		if !ok || name == "" {
			continue
		}
		if _, disabled := getAttr(field, "disabled"); disabled {
			continue
		}
		switch tag(field) {
		case "input":
			switch inputType(field) {
			case "checkbox", "radio":
				if _, checked := getAttr(field, "checked"); checked {
					v, ok := getAttr(field, "value")
					if !ok {
						v = "on"
					}
					data.Add(name, v)
				}
			case "submit", "reset", "button", "image", "file":
			default:
				data.Add(name, value(field))
			}
		case "textarea":
			data.Add(name, value(field))
		case "select":
			opt := htmlquery.FindOne(field, ".//option[@selected]")
			if opt == nil {
				opt = htmlquery.FindOne(field, ".//option")
			}
			if opt != nil {
				data.Add(name, htmlquery.SelectAttr(opt, "value"))
			}
		}
	}
	if name, ok := getAttr(submitter, "name"); ok && name != "" {
		data.Add(name, htmlquery.SelectAttr(submitter, "value"))
	}

	target, err := d.resolve(action)
	if err != nil {
		return fmt.Errorf("submit form: %w", err)
	}

	var req *http.Request
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, target.String(), strings.NewReader(data.Encode()))
		if err != nil {
			return fmt.Errorf("submit form: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		target.RawQuery = data.Encode()
		req, err = http.NewRequestWithContext(ctx, method, target.String(), nil)
		if err != nil {
			return fmt.Errorf("submit form: %w", err)
		}
	}
	return d.executeLocked(req)
}
