package harness

import (
	"context"
	"fmt"

	"github.com/roach88/uiscenario/internal/assertion"
	"github.com/roach88/uiscenario/internal/driver"
)

// readString evaluates a string probe.
func readString(ctx context.Context, d driver.Driver, p Probe) (string, error) {
	switch p.Kind {
	case ProbeURL:
		return d.CurrentURL(ctx)
	case ProbeTitle:
		return d.Title(ctx)
	case ProbeText:
		el, err := driver.Locate(ctx, d, p.Locator)
		if err != nil {
			return "", err
		}
		return el.Text(ctx)
	case ProbeAttribute:
		el, err := driver.Locate(ctx, d, p.Locator)
		if err != nil {
			return "", err
		}
		val, _, err := el.Attribute(ctx, p.Name)
		return val, err
	}
	return "", fmt.Errorf("probe %s does not yield a string", p.Kind)
}

// readBool evaluates a boolean probe. A visibility probe on a missing
// element is an error, not false.
func readBool(ctx context.Context, d driver.Driver, p Probe) (bool, error) {
	if p.Kind != ProbeVisible {
		return false, fmt.Errorf("probe %s does not yield a boolean", p.Kind)
	}
	el, err := driver.Locate(ctx, d, p.Locator)
	if err != nil {
		return false, err
	}
	return el.Displayed(ctx)
}

// readList evaluates a list probe.
func readList(ctx context.Context, d driver.Driver, p Probe) ([]string, error) {
	if p.Kind != ProbeTexts {
		return nil, fmt.Errorf("probe %s does not yield a list", p.Kind)
	}
	return driver.Texts(ctx, d, p.Locator)
}

// check reads the probe of an assertion step and evaluates it. The error
// is non-nil only when the page could not be read.
func check(ctx context.Context, d driver.Driver, s *Step) (assertion.Outcome, error) {
	switch s.Kind() {
	case KindAssertEqual, KindAssertContains, KindAssertPrefix:
		c := s.compare()
		actual, err := readString(ctx, d, c.Actual)
		if err != nil {
			return assertion.Outcome{}, err
		}
		switch s.Kind() {
		case KindAssertEqual:
			return assertion.Equal(actual, c.Expected, c.Message), nil
		case KindAssertContains:
			return assertion.Contains(actual, c.Expected, c.Message), nil
		}
		return assertion.HasPrefix(actual, c.Expected, c.Message), nil

	case KindAssertTrue:
		ok, err := readBool(ctx, d, s.AssertTrue.Actual)
		if err != nil {
			return assertion.Outcome{}, err
		}
		return assertion.True(ok, s.AssertTrue.Message), nil

	case KindAssertListEqual:
		actual, err := readList(ctx, d, s.AssertListEqual.Actual)
		if err != nil {
			return assertion.Outcome{}, err
		}
		return assertion.ListEqual(actual, s.AssertListEqual.Expected, s.AssertListEqual.Message), nil
	}
	return assertion.Outcome{}, fmt.Errorf("%s is not an assertion", s)
}
