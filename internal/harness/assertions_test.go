package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uiscenario/internal/driver"
	"github.com/roach88/uiscenario/internal/testutil"
)

func probePage(t *testing.T) *testutil.FakeDriver {
	t.Helper()
	d := testutil.NewFakeDriver(map[string]*testutil.FakePage{
		fakeBase + "/": {Title: "Home", Elements: elems{
			"id=link":       {{Text: "Docs", Attrs: map[string]string{"href": fakeBase + "/docs"}}},
			"id=hidden":     {{Text: "secret", Hidden: true}},
			"xpath=//li":    {{Text: "one"}, {Text: "two"}},
			"class_name=cf": {{Text: "e\u0301te\u0301"}},
		}},
	})
	require.NoError(t, d.Navigate(context.Background(), fakeBase+"/"))
	return d
}

func stepOf(t *testing.T, yamlStep string) *Step {
	t.Helper()
	suite := parse(t, "name: p\nscenarios:\n  - name: s\n    steps:\n      - "+yamlStep+"\n")
	return &suite.Scenarios[0].Steps[0]
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		step     string
		pass     bool
		expected string
		actual   string
	}{
		{"url", `assert_equal: { actual: url, expected: "http://fake.test/" }`, true, `"http://fake.test/"`, `"http://fake.test/"`},
		{"title mismatch", `assert_equal: { actual: title, expected: Away }`, false, `"Away"`, `"Home"`},
		{"text contains", `assert_contains: { actual: { text: { id: link } }, expected: oc }`, true, `contains "oc"`, `"Docs"`},
		{"text prefix", `assert_prefix: { actual: { text: { id: link } }, expected: Do }`, true, `starts with "Do"`, `"Docs"`},
		{"attribute", `assert_equal: { actual: { attribute: { locator: { id: link }, name: href } }, expected: "http://fake.test/docs" }`, true, `"http://fake.test/docs"`, `"http://fake.test/docs"`},
		{"missing attribute reads empty", `assert_equal: { actual: { attribute: { locator: { id: link }, name: title } }, expected: "" }`, true, `""`, `""`},
		{"visible", `assert_true: { actual: { visible: { id: link } } }`, true, "true", "true"},
		{"hidden", `assert_true: { actual: { visible: { id: hidden } } }`, false, "true", "false"},
		{"list order matters", `assert_list_equal: { actual: { texts: { xpath: //li } }, expected: [two, one] }`, false, `["two", "one"]`, `["one", "two"]`},
		{"empty list", `assert_list_equal: { actual: { texts: { xpath: //p } }, expected: [] }`, true, `[]`, `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := check(context.Background(), probePage(t), stepOf(t, tt.step))
			require.NoError(t, err)
			assert.Equal(t, tt.pass, outcome.Pass)
			assert.Equal(t, tt.expected, outcome.Expected)
			assert.Equal(t, tt.actual, outcome.Actual)
		})
	}
}

func TestCheck_NormalizesUnicode(t *testing.T) {
	step := stepOf(t, `assert_equal: { actual: { text: { class_name: cf } }, expected: "\u00e9t\u00e9" }`)
	outcome, err := check(context.Background(), probePage(t), step)
	require.NoError(t, err)
	assert.True(t, outcome.Pass)
}

func TestCheck_MissingElementIsError(t *testing.T) {
	for _, s := range []string{
		`assert_equal: { actual: { text: { id: nope } }, expected: x }`,
		`assert_true: { actual: { visible: { id: nope } } }`,
	} {
		_, err := check(context.Background(), probePage(t), stepOf(t, s))
		var nf *driver.NotFoundError
		assert.ErrorAs(t, err, &nf, s)
	}
}

func TestCheck_StaleAfterNavigationIsError(t *testing.T) {
	d := probePage(t)
	el, err := driver.Locate(context.Background(), d, *stepOf(t, `click: { id: link }`).Click)
	require.NoError(t, err)
	require.NoError(t, d.Navigate(context.Background(), fakeBase+"/"))

	_, err = el.Text(context.Background())
	assert.ErrorIs(t, err, driver.ErrStaleElement)
}
