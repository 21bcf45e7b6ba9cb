package driver

import (
	"context"

	"github.com/roach88/uiscenario/internal/locator"
)

// Locate returns the first element matching loc.
// It fails with ErrElementNotFound when nothing matches. No retries are
// made; use Waiter.Until for conditions that need time to become true.
func Locate(ctx context.Context, d Driver, loc locator.Locator) (Element, error) {
	elems, err := d.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, &NotFoundError{Locator: loc}
	}
	return elems[0], nil
}

// LocateAll returns every element matching loc, possibly none.
func LocateAll(ctx context.Context, d Driver, loc locator.Locator) ([]Element, error) {
	elems, err := d.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	if elems == nil {
		elems = []Element{}
	}
	return elems, nil
}

// Texts returns the text of every element matching loc.
func Texts(ctx context.Context, d Driver, loc locator.Locator) ([]string, error) {
	elems, err := LocateAll(ctx, d, loc)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(elems))
	for _, e := range elems {
		text, err := e.Text(ctx)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, nil
}
