package harness

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// WriteText renders the report as a human-readable summary: every
// scenario, every recorded step outcome, warnings, and the totals.
func WriteText(w io.Writer, r *Report) error {
	var b strings.Builder
	for _, sc := range r.Scenarios {
		mark := green("✓")
		if !sc.Passed() {
			mark = red("✗")
		}
		fmt.Fprintf(&b, "%s %s/%s", mark, sc.Suite, sc.Name)
		if sc.Skipped > 0 {
			fmt.Fprintf(&b, " %s", faint(fmt.Sprintf("(%d skipped)", sc.Skipped)))
		}
		b.WriteByte('\n')

		for _, res := range sc.Results {
			mark := green("✓")
			if !res.Passed() {
				mark = red("✗")
			}
			index := fmt.Sprintf("[%d]", res.StepIndex)
			if res.StepIndex == SetupStepIndex {
				index = "[setup]"
			}
			fmt.Fprintf(&b, "    %s %s %s\n", mark, index, res.Step)
			if res.Passed() {
				continue
			}
			fmt.Fprintf(&b, "        %s\n", res.Message)
			for _, line := range strings.Split(strings.TrimRight(res.Diff, "\n"), "\n") {
				if line != "" {
					fmt.Fprintf(&b, "        %s\n", line)
				}
			}
		}
		for _, warning := range sc.Warnings {
			fmt.Fprintf(&b, "    %s %s\n", yellow("!"), warning)
		}
	}

	passed, failed := r.Counts()
	fmt.Fprintf(&b, "\nTest Summary: %d passed, %d failed, %d total\n", passed, failed, passed+failed)

	_, err := io.WriteString(w, b.String())
	return err
}
