// Package driver hides concrete browser-automation backends behind a small
// capability interface.
//
// A Driver is one browser session. It is owned by exactly one scenario
// execution: opened through a Factory when the scenario starts and closed
// when it ends. Element handles returned by Locate and LocateAll are only
// valid for the page they were found on; after any navigation they report
// ErrStaleElement and must be located again.
//
// Every operation is synchronous and fails immediately. The only operation
// allowed to suspend execution is Waiter.Until, which polls a Condition at
// a fixed interval within a caller-supplied timeout.
package driver

import (
	"context"

	"github.com/roach88/uiscenario/internal/locator"
)

// Driver is a single browser session.
type Driver interface {
	// Navigate loads url. Relative URLs resolve against the current page.
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the URL of the loaded document.
	CurrentURL(ctx context.Context) (string, error)

	// Title returns the document title.
	Title(ctx context.Context) (string, error)

	// FindAll returns every element matching loc, in document order.
	// It returns an empty slice, not an error, when nothing matches.
	FindAll(ctx context.Context, loc locator.Locator) ([]Element, error)

	// Close releases the session. Closing twice is a no-op.
	Close() error
}

// Element is an opaque handle to a page element at a point in time.
type Element interface {
	// Text returns the rendered, whitespace-normalized text of the element.
	Text(ctx context.Context) (string, error)

	// Attribute returns the attribute value, and false if it is absent.
	Attribute(ctx context.Context, name string) (string, bool, error)

	// Displayed reports whether the element is visible to a user.
	Displayed(ctx context.Context) (bool, error)

	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
}

// Factory opens isolated sessions. Implementations must be safe for
// concurrent use; sessions they return share no mutable state.
type Factory interface {
	Open(ctx context.Context) (Driver, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context) (Driver, error)

// Open calls f.
func (f FactoryFunc) Open(ctx context.Context) (Driver, error) { return f(ctx) }
