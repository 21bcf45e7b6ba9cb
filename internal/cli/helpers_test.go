package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	stdout string
	stderr string
	code   int
}

// runCLI executes the CLI with env as the only visible environment.
func runCLI(t *testing.T, env map[string]string, args ...string) cliResult {
	t.Helper()

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	opts := &RootOptions{LookupEnv: func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}}
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), opts, args, &stdout, &stderr)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
