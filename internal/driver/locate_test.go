package driver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uiscenario/internal/driver"
	"github.com/roach88/uiscenario/internal/locator"
	"github.com/roach88/uiscenario/internal/testutil"
)

var labels = locator.MustNew(locator.XPath, "//label")

func loginDriver(t *testing.T) *testutil.FakeDriver {
	t.Helper()
	d := testutil.NewFakeDriver(map[string]*testutil.FakePage{
		"/login": {
			Title: "The Internet",
			Elements: map[string][]*testutil.FakeElement{
				labels.String(): {{Text: "Username"}, {Text: "Password"}},
			},
		},
		"/secure": {Title: "The Internet"},
	})
	require.NoError(t, d.Navigate(context.Background(), "/login"))
	return d
}

func TestLocate_FirstMatch(t *testing.T) {
	ctx := context.Background()
	d := loginDriver(t)

	el, err := driver.Locate(ctx, d, labels)
	require.NoError(t, err)
	text, err := el.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Username", text)
}

func TestLocate_NotFound(t *testing.T) {
	missing := locator.MustNew(locator.ID, "flash")
	_, err := driver.Locate(context.Background(), loginDriver(t), missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, driver.ErrElementNotFound))
	assert.Equal(t, "element not found: id=flash", err.Error())
}

func TestLocateAll_EmptyIsNotAnError(t *testing.T) {
	elems, err := driver.LocateAll(context.Background(), loginDriver(t), locator.MustNew(locator.CSS, "table"))
	require.NoError(t, err)
	assert.NotNil(t, elems)
	assert.Empty(t, elems)
}

func TestTexts(t *testing.T) {
	texts, err := driver.Texts(context.Background(), loginDriver(t), labels)
	require.NoError(t, err)
	assert.Equal(t, []string{"Username", "Password"}, texts)
}

func TestHandlesGoStaleAfterNavigation(t *testing.T) {
	ctx := context.Background()
	d := loginDriver(t)

	el, err := driver.Locate(ctx, d, labels)
	require.NoError(t, err)
	require.NoError(t, d.Navigate(ctx, "/secure"))

	_, err = el.Text(ctx)
	assert.ErrorIs(t, err, driver.ErrStaleElement)
	assert.True(t, driver.IsInfrastructure(err))
}

func TestIsInfrastructure(t *testing.T) {
	assert.True(t, driver.IsInfrastructure(&driver.NotFoundError{Locator: labels}))
	assert.True(t, driver.IsInfrastructure(driver.ErrSessionClosed))
	assert.False(t, driver.IsInfrastructure(errors.New("template parse error")))
}
