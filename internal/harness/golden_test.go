package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/uiscenario/internal/testutil"
)

func TestReport_Golden(t *testing.T) {
	login := parse(t, `
name: fake_login
setup:
  - navigate: /
  - click: { link_text: Form Authentication }
scenarios:
  - name: heading
    steps:
      - assert_equal: { actual: { text: { xpath: //h2 } }, expected: Login Page, message: Heading text is incorrect }
      - assert_equal: { actual: title, expected: The Internet }
    teardown:
      - navigate: /logout
  - name: labels
    steps:
      - assert_list_equal:
          actual: { texts: { xpath: //label } }
          expected: [Password, Username]
          message: Label texts are incorrect
      - assert_equal: { actual: title, expected: The Internet }
  - name: missing_element
    steps:
      - click: { id: remember-me }
`)
	broken := parse(t, `
name: broken
scenarios:
  - name: unreachable
    setup:
      - navigate: /broken
    steps:
      - assert_equal: { actual: title, expected: Anything }
`)

	report := newTestRunner(testutil.NewFakeFactory(fakeSite), Options{Parallel: 2}).
		Run(context.Background(), []*Suite{login, broken})
	require.Len(t, report.Scenarios, 4)

	AssertGolden(t, "report_mixed", report)
}
