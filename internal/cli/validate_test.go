package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSuite = `
name: valid
scenarios:
  - name: title
    steps:
      - navigate: /login
      - assert_equal: { actual: title, expected: The Internet }
`

func TestValidate_BundledScenarios(t *testing.T) {
	res := runCLI(t, nil, "validate", bundledScenarios)

	assert.Equal(t, ExitSuccess, res.code, res.stdout)
	assert.Contains(t, res.stdout, "✓ 1 suite(s), 11 scenario(s) valid")
}

func TestValidate_ReportsEveryInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_valid.yaml", validSuite)
	writeFile(t, dir, "b_unknown_field.yaml", `
name: bad
scenarios:
  - name: s
    steps:
      - navigate: /
        retries: 3
`)
	writeFile(t, dir, "c_unbounded_wait.yml", `
name: bad
scenarios:
  - name: s
    steps:
      - wait_visible: { locator: { id: flash } }
`)
	writeFile(t, dir, "notes.txt", "not a scenario")

	res := runCLI(t, nil, "validate", dir)

	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stdout, "✗ Validation failed")
	assert.Contains(t, res.stdout, "b_unknown_field.yaml")
	assert.Contains(t, res.stdout, "field retries not found")
	assert.Contains(t, res.stdout, "c_unbounded_wait.yml")
	assert.Contains(t, res.stdout, "wait_visible")
	assert.NotContains(t, res.stdout, "a_valid.yaml")
	assert.Contains(t, res.stderr, "validation failed with 2 error(s)")
}

func TestValidate_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "valid.yaml", validSuite)
	writeFile(t, dir, "vars.yaml", `
name: vars
scenarios:
  - name: s
    steps:
      - navigate: "${start}"
`)

	res := runCLI(t, nil, "--format", "json", "validate", dir)
	assert.Equal(t, ExitFailure, res.code)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Suites, 1)
	assert.Equal(t, []string{"title"}, resp.Data.Suites[0].Scenarios)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, ErrCodeInvalid, resp.Data.Errors[0].Code)
	assert.Contains(t, resp.Data.Errors[0].Message, "undefined variables: start")

	// Supplying the variable makes the directory valid.
	res = runCLI(t, nil, "--format", "json", "validate", dir, "--var", "start=/login")
	assert.Equal(t, ExitSuccess, res.code, res.stdout)
}

func TestValidate_CUEErrorPosition(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.cue", "name: \"a\"\nname: \"b\"\n")

	res := runCLI(t, nil, "--format", "json", "validate", dir)
	assert.Equal(t, ExitFailure, res.code)

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	require.Len(t, resp.Data.Errors, 1)
	assert.Positive(t, resp.Data.Errors[0].Line)
	assert.Positive(t, resp.Data.Errors[0].Column)
	assert.Contains(t, resp.Data.Errors[0].File, "broken.cue")
}

func TestValidate_MissingPath(t *testing.T) {
	res := runCLI(t, nil, "validate", "/nonexistent/scenarios")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stdout, "Error [E002]")
}
