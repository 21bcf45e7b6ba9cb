// Package assertion implements typed checks over values already read from a
// page.
//
// Every check is a pure function returning an Outcome rather than failing a
// test or raising, so a runner can keep collecting results. Each Outcome
// carries the caller's diagnostic message together with the expected and
// actual values for reporting.
//
// Strings are compared after Unicode NFC normalization: browsers and HTML
// parsers do not agree on whether composed or decomposed forms are
// returned, and the difference is never visible to a user.
package assertion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

// Assertion kinds.
const (
	KindEqual     = "equal"
	KindContains  = "contains"
	KindPrefix    = "prefix"
	KindListEqual = "list_equal"
	KindTrue      = "true"
)

// Outcome is the structured result of one check.
type Outcome struct {
	Kind     string `json:"kind"`
	Pass     bool   `json:"pass"`
	Message  string `json:"message,omitempty"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Diff     string `json:"diff,omitempty"`
}

// Err returns nil for a passing outcome and a *Failure otherwise.
func (o Outcome) Err() error {
	if o.Pass {
		return nil
	}
	return &Failure{Outcome: o}
}

// String renders a one-line summary.
func (o Outcome) String() string {
	if o.Pass {
		return fmt.Sprintf("pass: %s", o.Kind)
	}
	msg := o.Message
	if msg == "" {
		msg = "assertion failed"
	}
	return fmt.Sprintf("%s: expected %s, actual %s", msg, o.Expected, o.Actual)
}

// Failure is the error form of a failed Outcome.
type Failure struct {
	Outcome Outcome
}

// Error implements the error interface.
func (f *Failure) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", f.Outcome.Kind)
	if f.Outcome.Message != "" {
		fmt.Fprintf(&buf, " (%s)", f.Outcome.Message)
	}
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "  Expected: %s\n", f.Outcome.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", f.Outcome.Actual)
	if f.Outcome.Diff != "" {
		fmt.Fprintf(&buf, "\nDiff:\n%s", f.Outcome.Diff)
	}
	return buf.String()
}

// Equal passes when actual equals expected.
func Equal(actual, expected, message string) Outcome {
	return Outcome{
		Kind:     KindEqual,
		Pass:     normalize(actual) == normalize(expected),
		Message:  message,
		Expected: strconv.Quote(expected),
		Actual:   strconv.Quote(actual),
	}
}

// Contains passes when actual contains expected as a substring.
func Contains(actual, expected, message string) Outcome {
	return Outcome{
		Kind:     KindContains,
		Pass:     strings.Contains(normalize(actual), normalize(expected)),
		Message:  message,
		Expected: "contains " + strconv.Quote(expected),
		Actual:   strconv.Quote(actual),
	}
}

// HasPrefix passes when actual starts with expected.
func HasPrefix(actual, expected, message string) Outcome {
	return Outcome{
		Kind:     KindPrefix,
		Pass:     strings.HasPrefix(normalize(actual), normalize(expected)),
		Message:  message,
		Expected: "starts with " + strconv.Quote(expected),
		Actual:   strconv.Quote(actual),
	}
}

// ListEqual passes when both lists have the same length and are equal
// element-wise. Order matters.
func ListEqual(actual, expected []string, message string) Outcome {
	o := Outcome{
		Kind:     KindListEqual,
		Pass:     len(actual) == len(expected),
		Message:  message,
		Expected: formatList(expected),
		Actual:   formatList(actual),
	}
	for i := 0; o.Pass && i < len(actual); i++ {
		if normalize(actual[i]) != normalize(expected[i]) {
			o.Pass = false
		}
	}
	if !o.Pass {
		o.Diff = listDiff(actual, expected)
	}
	return o
}

// True passes when cond holds.
func True(cond bool, message string) Outcome {
	return Outcome{
		Kind:     KindTrue,
		Pass:     cond,
		Message:  message,
		Expected: "true",
		Actual:   strconv.FormatBool(cond),
	}
}

func normalize(s string) string {
	return norm.NFC.String(s)
}

func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = strconv.Quote(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// listDiff renders a unified diff, one element per line.
func listDiff(actual, expected []string) string {
	lines := func(items []string) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = strconv.Quote(it) + "\n"
		}
		return out
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        lines(expected),
		B:        lines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
