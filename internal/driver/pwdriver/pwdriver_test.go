package pwdriver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uiscenario/internal/driver"
	"github.com/roach88/uiscenario/internal/harness"
	"github.com/roach88/uiscenario/internal/locator"
	"github.com/roach88/uiscenario/internal/testutil"
)

func TestSelector(t *testing.T) {
	tests := []struct {
		loc  locator.Locator
		want string
	}{
		{locator.MustNew(locator.ID, "flash"), `css=[id="flash"]`},
		{locator.MustNew(locator.CSS, "#login > button"), "css=#login > button"},
		{locator.MustNew(locator.ClassName, "flash.success"), "css=.flash.success"},
		{locator.MustNew(locator.XPath, "//h2"), "xpath=//h2"},
		{locator.MustNew(locator.LinkText, "Logout"), "xpath=//a[normalize-space(.)='Logout']"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Selector(tt.loc), tt.loc.String())
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(assert.AnError), assert.AnError)
	assert.ErrorIs(t, translate(errString("Element is not attached to the DOM")), driver.ErrStaleElement)
	assert.ErrorIs(t, translate(errString("Execution context was destroyed, most likely because of a navigation")), driver.ErrStaleElement)
}

type errString string

func (e errString) Error() string { return string(e) }

// launch starts Chromium or skips when no browser is installed.
func launch(t *testing.T) *Launcher {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests disabled in short mode")
	}
	l, err := Launch(Options{Headless: true, Timeout: 5 * time.Second})
	if err != nil {
		t.Skip("Playwright not available:", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLoginFlow(t *testing.T) {
	l := launch(t)
	site := testutil.NewSite(t)
	ctx := context.Background()

	d, err := l.Open(ctx)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Navigate(ctx, site.URL+"/login"))
	title, err := d.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "The Internet", title)

	heading, err := driver.Locate(ctx, d, locator.MustNew(locator.XPath, "//h2"))
	require.NoError(t, err)

	for loc, text := range map[string]string{"#username": testutil.SiteUsername, "#password": testutil.SitePassword} {
		el, err := driver.Locate(ctx, d, locator.MustNew(locator.CSS, loc))
		require.NoError(t, err)
		require.NoError(t, el.Clear(ctx))
		require.NoError(t, el.SendKeys(ctx, text))
	}
	btn, err := driver.Locate(ctx, d, locator.MustNew(locator.CSS, "#login > button"))
	require.NoError(t, err)
	require.NoError(t, btn.Click(ctx))

	banner, err := driver.NewWaiter(50*time.Millisecond).Until(ctx, d,
		driver.VisibilityOf(locator.MustNew(locator.ClassName, "flash.success")), 5*time.Second)
	require.NoError(t, err)
	msg, err := banner.Text(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, testutil.FlashLoggedIn)

	_, err = heading.Text(ctx)
	assert.ErrorIs(t, err, driver.ErrStaleElement)

	hidden, err := driver.Locate(ctx, d, locator.MustNew(locator.CSS, "#username"))
	if err == nil {
		t.Fatalf("secure page should not have a username field, found %v", hidden)
	}
	assert.ErrorIs(t, err, driver.ErrElementNotFound)
}

func TestSessionsAreIsolated(t *testing.T) {
	l := launch(t)
	site := testutil.NewSite(t)
	ctx := context.Background()

	d, err := l.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Navigate(ctx, site.URL), driver.ErrSessionClosed)

	other, err := l.Open(ctx)
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Navigate(ctx, site.URL+"/secure"))
	url, err := other.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, site.URL+"/login", url)
}

func TestDismissFlashSuite(t *testing.T) {
	l := launch(t)
	site := testutil.NewSite(t)

	suite, err := harness.LoadSuite("../../../scenarios/browser/dismiss_flash.yaml", harness.LoadOptions{BaseURL: site.URL})
	require.NoError(t, err)

	report := harness.NewRunner(l, harness.Options{}).Run(context.Background(), []*harness.Suite{suite})
	for _, sc := range report.Scenarios {
		if f, ok := sc.Failure(); ok {
			t.Errorf("%s: step %d (%s): %s", sc.Name, f.StepIndex, f.Step, f.Message)
		}
	}
	assert.True(t, report.Passed())
}
