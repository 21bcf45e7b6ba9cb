package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/uiscenario/internal/locator"
)

// DefaultPollInterval is the fixed interval between condition checks.
const DefaultPollInterval = 250 * time.Millisecond

// Condition is a predicate over the current page that yields an element
// once satisfied.
type Condition struct {
	// Name describes the condition in timeout messages.
	Name string

	// Check returns a non-nil element when the condition holds. When it
	// does not, state describes what was observed instead.
	Check func(ctx context.Context, d Driver) (el Element, state string, err error)
}

// PresenceOf holds once loc matches at least one element.
func PresenceOf(loc locator.Locator) Condition {
	return Condition{
		Name: "presence of " + loc.String(),
		Check: func(ctx context.Context, d Driver) (Element, string, error) {
			el, err := Locate(ctx, d, loc)
			if err != nil {
				return nil, "not present", err
			}
			return el, "present", nil
		},
	}
}

// VisibilityOf holds once the first element matching loc is displayed.
func VisibilityOf(loc locator.Locator) Condition {
	return Condition{
		Name: "visibility of " + loc.String(),
		Check: func(ctx context.Context, d Driver) (Element, string, error) {
			el, err := Locate(ctx, d, loc)
			if err != nil {
				return nil, "not present", err
			}
			shown, err := el.Displayed(ctx)
			if err != nil {
				return nil, "present", err
			}
			if !shown {
				return nil, "present but not displayed", nil
			}
			return el, "displayed", nil
		},
	}
}

// Waiter performs explicit waits.
type Waiter struct {
	Interval time.Duration // Poll interval; DefaultPollInterval when zero
	Clock    Clock         // Time source; SystemClock when nil
}

// NewWaiter creates a waiter polling at interval.
func NewWaiter(interval time.Duration) *Waiter {
	return &Waiter{Interval: interval}
}

// Until polls cond until it yields an element or timeout elapses.
//
// ErrElementNotFound and ErrStaleElement raised by the check are treated as
// "not yet" and retried; any other error aborts the wait. On expiry a
// *TimeoutError carries the elapsed time and the last observed state.
func (w *Waiter) Until(ctx context.Context, d Driver, cond Condition, timeout time.Duration) (Element, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%s: %w", cond.Name, ErrUnboundedWait)
	}

	interval := DefaultPollInterval
	var clock Clock = SystemClock{}
	if w != nil {
		if w.Interval > 0 {
			interval = w.Interval
		}
		if w.Clock != nil {
			clock = w.Clock
		}
	}

	start := clock.Now()
	deadline := start.Add(timeout)

	var lastState string
	var lastErr error
	for {
		el, state, err := cond.Check(ctx, d)
		if err == nil && el != nil {
			return el, nil
		}
		if err != nil && !retryable(err) {
			return nil, err
		}
		lastState, lastErr = state, err

		now := clock.Now()
		if !now.Before(deadline) {
			return nil, &TimeoutError{
				Condition: cond.Name,
				Timeout:   timeout,
				Elapsed:   now.Sub(start),
				LastState: lastState,
				LastErr:   lastErr,
			}
		}

		sleep := interval
		if remaining := deadline.Sub(now); remaining < sleep {
			sleep = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-clock.After(sleep):
		}
	}
}

func retryable(err error) bool {
	return errors.Is(err, ErrElementNotFound) || errors.Is(err, ErrStaleElement)
}
