package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uiscenario/internal/driver"
	"github.com/roach88/uiscenario/internal/driver/htmldriver"
	"github.com/roach88/uiscenario/internal/testutil"
)

func runHTML(t *testing.T, suites ...*Suite) *Report {
	t.Helper()
	r := NewRunner(htmldriver.NewFactory(htmldriver.Options{Timeout: 5 * time.Second}), Options{
		Waiter:   driver.NewWaiter(10 * time.Millisecond),
		Parallel: 4,
	})
	return r.Run(context.Background(), suites)
}

func TestE2E_FormAuthenticationSuite(t *testing.T) {
	site := testutil.NewSite(t)
	suite, err := LoadSuite("../../scenarios/form_authentication.yaml", LoadOptions{BaseURL: site.URL})
	require.NoError(t, err)

	report := runHTML(t, suite)
	for _, sc := range report.Scenarios {
		if f, ok := sc.Failure(); ok {
			t.Errorf("%s: step %d (%s): %s", sc.Name, f.StepIndex, f.Step, f.Message)
		}
		assert.Empty(t, sc.Warnings, sc.Name)
	}
	assert.True(t, report.Passed())

	passed, failed := report.Counts()
	assert.Equal(t, len(suite.Scenarios), passed)
	assert.Zero(t, failed)
}

func TestE2E_EmptyCredentialsExactMessage(t *testing.T) {
	site := testutil.NewSite(t)
	suite, err := ParseSuite([]byte(`
name: exact
setup:
  - navigate: /login
scenarios:
  - name: matches
    steps:
      - click: "css=#login > button"
      - assert_equal: { actual: { text: { id: flash } }, expected: "Your username is invalid! ×" }
  - name: differs
    steps:
      - click: "css=#login > button"
      - assert_equal: { actual: { text: { id: flash } }, expected: "Your username is invalid!" }
`), LoadOptions{BaseURL: site.URL})
	require.NoError(t, err)

	report := runHTML(t, suite)
	require.Len(t, report.Scenarios, 2)
	assert.True(t, report.Scenarios[0].Passed())

	f, ok := report.Scenarios[1].Failure()
	require.True(t, ok)
	assert.Equal(t, 1, f.StepIndex)
	assert.Equal(t, `"Your username is invalid! ×"`, f.Actual)
}

func TestE2E_SecureAreaRequiresLogin(t *testing.T) {
	site := testutil.NewSite(t)
	suite, err := ParseSuite([]byte(`
name: guard
scenarios:
  - name: direct_access
    steps:
      - navigate: /secure
      - assert_contains: { actual: url, expected: /login }
      - assert_true: { actual: { visible: { css: "#flash.error" } } }
`), LoadOptions{BaseURL: site.URL})
	require.NoError(t, err)

	report := runHTML(t, suite)
	assert.True(t, report.Passed())
}

func TestE2E_DismissFlashNeedsScript(t *testing.T) {
	site := testutil.NewSite(t)
	suite, err := LoadSuite("../../scenarios/browser/dismiss_flash.yaml", LoadOptions{BaseURL: site.URL})
	require.NoError(t, err)

	report := runHTML(t, suite)
	require.Len(t, report.Scenarios, 1)
	f, ok := report.Scenarios[0].Failure()
	require.True(t, ok)
	assert.Equal(t, 4, f.StepIndex)
	assert.Equal(t, "Your username is invalid! ×", f.Actual)
}
