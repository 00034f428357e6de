package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func newTestCmd(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

// scenarioDir lays out scenarios/ and declarations/ in a temp directory.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scenarios"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "declarations"), 0o755))

	decl, err := os.ReadFile(library)
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "declarations", "library.yaml"), string(decl))
	for name, body := range scenarios {
		writeFile(t, filepath.Join(root, "scenarios", name), body)
	}
	return filepath.Join(root, "scenarios")
}

const passingScenario = `name: shelve
description: "create one author"
declarations: [../declarations/library.yaml]
steps:
  - op: create
    table: Author
    values: {name: Ann}
assertions:
  - type: row_count
    table: Author
    count: 1
`

const failingScenario = `name: broken
description: "expects the wrong row count"
declarations: [../declarations/library.yaml]
steps:
  - op: all
    table: Book
    expect: {count: 3}
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := newTestCmd(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, err := newTestCmd(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := newTestCmd(t, "text", harnessScenarios)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\u2713 checkout")
	assert.Contains(t, out.String(), "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandSingleFile(t *testing.T) {
	out, err := newTestCmd(t, "json", filepath.Join(harnessScenarios, "checkout.yaml"))
	require.NoError(t, err)

	var result TestResult
	resp := decode(t, out.String(), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, "checkout", result.Scenarios[0].Name)
}

func TestTestCommandFailure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"shelve.yaml": passingScenario, "broken.yaml": failingScenario})

	out, err := newTestCmd(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out.String(), "\u2717 broken")
	assert.Contains(t, out.String(), "expected count 3, got 0")
	assert.Contains(t, out.String(), "\u2713 shelve")

	out, err = newTestCmd(t, "json", dir)
	require.Error(t, err)
	assert.True(t, WasReported(err))
	var result TestResult
	resp := decode(t, out.String(), &result)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Total)
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"shelve.yaml": passingScenario, "broken.yaml": failingScenario})

	out, err := newTestCmd(t, "json", dir, "--filter", "shel*")
	require.NoError(t, err)
	var result TestResult
	decode(t, out.String(), &result)
	assert.Equal(t, 1, result.Total)

	_, err = newTestCmd(t, "text", dir, "--filter", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestTestCommandUpdateGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"shelve.yaml": passingScenario})
	golden := filepath.Join(filepath.Dir(dir), "golden", "shelve.golden")

	out, err := newTestCmd(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "golden updated")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)
	var step map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &step))
	assert.Equal(t, "create", step["op"])

	_, err = newTestCmd(t, "text", dir)
	require.NoError(t, err)

	writeFile(t, golden, "{}\n")
	out, err = newTestCmd(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out.String(), "trace does not match golden file")
}
