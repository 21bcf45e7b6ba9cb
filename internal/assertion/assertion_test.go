package assertion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Login Page", "Login Page", "").Pass)

	o := Equal("Secure Area", "Login Page", "Heading text is incorrect")
	assert.False(t, o.Pass)
	assert.Equal(t, KindEqual, o.Kind)
	assert.Equal(t, `"Login Page"`, o.Expected)
	assert.Equal(t, `"Secure Area"`, o.Actual)
	assert.Equal(t, `Heading text is incorrect: expected "Login Page", actual "Secure Area"`, o.String())
}

func TestEqual_NormalizesUnicode(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	assert.True(t, Equal(composed, decomposed, "").Pass)
	assert.True(t, Contains("Welcome to the "+decomposed, composed, "").Pass)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Your username is invalid! ×", "Your username is invalid!", "").Pass)

	o := Contains("https://example.test/login", "/secure", "URL does not contain '/secure'")
	assert.False(t, o.Pass)
	assert.Equal(t, `contains "/secure"`, o.Expected)
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("You logged into a secure area! ×", "You logged into a secure area!", "").Pass)
	assert.False(t, HasPrefix("× You logged into a secure area!", "You logged", "").Pass)
}

func TestTrue(t *testing.T) {
	assert.True(t, True(true, "").Pass)

	o := True(false, "Login button is not displayed")
	assert.False(t, o.Pass)
	assert.Equal(t, "true", o.Expected)
	assert.Equal(t, "false", o.Actual)
}

func TestListEqual_OrderSensitive(t *testing.T) {
	assert.True(t, ListEqual([]string{"A", "B"}, []string{"A", "B"}, "").Pass)

	o := ListEqual([]string{"B", "A"}, []string{"A", "B"}, "Label texts are incorrect")
	assert.False(t, o.Pass)
	assert.Contains(t, o.Diff, "--- expected")
	assert.Contains(t, o.Diff, "+++ actual")
	assert.Contains(t, o.Diff, `-"A"`)
}

func TestListEqual_LengthMismatch(t *testing.T) {
	o := ListEqual([]string{"Username"}, []string{"Username", "Password"}, "")
	assert.False(t, o.Pass)
	assert.Equal(t, `["Username", "Password"]`, o.Expected)
	assert.Equal(t, `["Username"]`, o.Actual)

	assert.True(t, ListEqual(nil, []string{}, "").Pass)
}

func TestOutcomeErr(t *testing.T) {
	assert.NoError(t, Equal("x", "x", "").Err())

	err := ListEqual([]string{"Password", "Username"}, []string{"Username", "Password"}, "Label texts are incorrect").Err()
	require.Error(t, err)

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, KindListEqual, failure.Outcome.Kind)

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: list_equal (Label texts are incorrect)")
	assert.Contains(t, msg, `  Expected: ["Username", "Password"]`)
	assert.Contains(t, msg, `  Actual: ["Password", "Username"]`)
	assert.Contains(t, msg, "Diff:")
}

func TestListEqual_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := rapid.SliceOf(rapid.StringMatching(`[A-Za-z ]{0,8}`)).Draw(t, "xs")

		if !ListEqual(xs, append([]string(nil), xs...), "").Pass {
			t.Fatalf("a list must equal its copy: %q", xs)
		}

		extra := rapid.StringMatching(`[a-z]{1,4}`).Draw(t, "extra")
		if ListEqual(append(append([]string(nil), xs...), extra), xs, "").Pass {
			t.Fatalf("lists of different length must differ")
		}

		if len(xs) >= 2 && xs[0] != xs[1] {
			swapped := append([]string(nil), xs...)
			swapped[0], swapped[1] = swapped[1], swapped[0]
			if ListEqual(swapped, xs, "").Pass {
				t.Fatalf("swapping distinct elements must fail: %q", xs)
			}
		}
	})
}
