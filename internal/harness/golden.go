package harness

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares the text rendering of report against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, report *Report) {
	t.Helper()

	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	var buf bytes.Buffer
	if err := WriteText(&buf, report); err != nil {
		t.Fatalf("render report: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}
