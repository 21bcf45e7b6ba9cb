package driver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/uiscenario/internal/locator"
)

var (
	// ErrElementNotFound is returned when a locator that must match exactly
	// one element matched nothing.
	ErrElementNotFound = errors.New("element not found")

	// ErrStaleElement is returned when a handle is used after the page it
	// was obtained from has changed.
	ErrStaleElement = errors.New("stale element reference")

	// ErrUnboundedWait is returned when an explicit wait is requested
	// without a positive timeout.
	ErrUnboundedWait = errors.New("explicit wait requires a positive timeout")

	// ErrSessionClosed is returned by operations on a closed driver.
	ErrSessionClosed = errors.New("session closed")
)

// NotFoundError reports which locator matched nothing.
type NotFoundError struct {
	Locator locator.Locator
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrElementNotFound, e.Locator)
}

// Is makes errors.Is(err, ErrElementNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}

// TimeoutError is returned when an explicit wait exceeds its budget.
type TimeoutError struct {
	Condition string        // Human-readable condition description
	Timeout   time.Duration // Budget supplied by the caller
	Elapsed   time.Duration // Time actually spent polling
	LastState string        // Last observed state of the condition
	LastErr   error         // Last error returned while polling, if any
}

func (e *TimeoutError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "timed out after %s (budget %s) waiting for %s", e.Elapsed.Round(time.Millisecond), e.Timeout, e.Condition)
	if e.LastState != "" {
		fmt.Fprintf(&buf, "; last state: %s", e.LastState)
	}
	if e.LastErr != nil {
		fmt.Fprintf(&buf, "; last error: %v", e.LastErr)
	}
	return buf.String()
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// IsInfrastructure reports whether err belongs to the driver error
// taxonomy, as opposed to an unexpected internal failure.
func IsInfrastructure(err error) bool {
	var timeout *TimeoutError
	return errors.Is(err, ErrElementNotFound) ||
		errors.Is(err, ErrStaleElement) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.As(err, &timeout)
}
