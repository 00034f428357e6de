package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uniorm/internal/audit"
)

func loadCheckout(t *testing.T) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "checkout.yaml"))
	require.NoError(t, err)
	return s
}

func TestLoadScenario(t *testing.T) {
	s := loadCheckout(t)
	assert.Equal(t, "checkout", s.Name)
	assert.Equal(t, []string{filepath.Join("testdata", "declarations", "library.yaml")}, s.Declarations)
	require.Len(t, s.Steps, 11)
	assert.Equal(t, OpCreate, s.Steps[0].Op)
	assert.Equal(t, "$herbert", s.Steps[1].Values["author"])
	assert.Len(t, s.Assertions, 4)
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	decl, err := os.ReadFile(filepath.Join("testdata", "declarations", "library.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.yaml"), decl, 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", "name: x\ndescription: y\ndeclarations: [library.yaml]\nstep: []\n", "field step not found"},
		{"missing name", "description: y\ndeclarations: [library.yaml]\nsteps: [{op: all, table: Book}]\n", "name is required"},
		{"missing declarations", "name: x\ndescription: y\nsteps: [{op: all, table: Book}]\n", "declarations list is required"},
		{"missing declaration file", "name: x\ndescription: y\ndeclarations: [nope.yaml]\nsteps: [{op: all, table: Book}]\n", "declaration file not found"},
		{"no steps", "name: x\ndescription: y\ndeclarations: [library.yaml]\n", "steps list is required"},
		{"unknown op", "name: x\ndescription: y\ndeclarations: [library.yaml]\nsteps: [{op: upsert, table: Book}]\n", `unknown op "upsert"`},
		{"find without where", "name: x\ndescription: y\ndeclarations: [library.yaml]\nsteps: [{op: find, table: Book}]\n", "where is required"},
		{"save without ref", "name: x\ndescription: y\ndeclarations: [library.yaml]\nsteps: [{op: save}]\n", "ref is required"},
		{"resolve without column", "name: x\ndescription: y\ndeclarations: [library.yaml]\nsteps: [{op: resolve, ref: a}]\n", "column is required"},
		{"bad assertion", "name: x\ndescription: y\ndeclarations: [library.yaml]\nsteps: [{op: all, table: Book}]\nassertions: [{type: trace_contains}]\n", "unknown assertion type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.body))
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestRun_Checkout(t *testing.T) {
	result, err := Run(loadCheckout(t))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, 11)

	require.Len(t, result.Audit, 4)
	assert.Equal(t, audit.ActionInsert, result.Audit[0].Action)
	assert.Equal(t, audit.ActionDelete, result.Audit[3].Action)
	assert.Equal(t, "evt-0004", result.Audit[3].EventID)
}

func TestRunWithGolden(t *testing.T) {
	require.NoError(t, RunWithGolden(t, loadCheckout(t)))
}

func TestRun_Deterministic(t *testing.T) {
	s := loadCheckout(t)
	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := Snapshot(first)
	require.NoError(t, err)
	b, err := Snapshot(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ReportsFailures(t *testing.T) {
	path := writeScenario(t, `name: failing
description: "every expectation is wrong"
declarations: [library.yaml]
steps:
  - op: create
    table: Author
    as: a
    values: {name: Ann}
    expect:
      values: {name: Bob}
  - op: find
    table: Author
    where: {name: Ann}
    expect: {found: false}
  - op: create
    table: Author
    values: {name: Cy}
    expect: {error: VALIDATION_ERROR}
  - op: save
    ref: ghost
  - op: create
    table: Author
    values: {name: Ann}
assertions:
  - type: audit_count
    count: 7
  - type: audit_order
    actions: [DELETE]
  - type: final_state
    table: Author
    where: {name: Ann}
    expect: {name: Zed}
  - type: row_count
    table: Author
    count: 9
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, `steps[0] create: field "name" = Ann, expected Bob`)
	assert.Contains(t, joined, "steps[1] find: expected found=false")
	assert.Contains(t, joined, "steps[2] create: expected outcome VALIDATION_ERROR, got ok")
	assert.Contains(t, joined, `steps[3] save: no record bound as "ghost"`)
	assert.Contains(t, joined, "steps[4] create:", "unique violation surfaces as an internal error")
	assert.Contains(t, joined, "assertions[0]")
	assert.Contains(t, joined, "assertions[1]")
	assert.Contains(t, joined, "assertions[2]")
	assert.Contains(t, joined, "assertions[3]")

	assert.Equal(t, codeInternal, result.Trace[3].Outcome)
	assert.Equal(t, codeInternal, result.Trace[4].Outcome)
}

func TestRun_BadDeclarations(t *testing.T) {
	dir := t.TempDir()
	decl := filepath.Join(dir, "decl.yaml")
	require.NoError(t, os.WriteFile(decl, []byte("tables:\n  - name: T\n    columns:\n      - {name: a, type: text}\n"), 0o644))

	_, err := Run(&Scenario{Name: "x", Declarations: []string{decl}, Steps: []Step{{Op: OpAll, Table: "T"}}})
	assert.ErrorContains(t, err, "failed to apply declarations")
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{
		Type:     AssertAuditCount,
		Expected: "1 entries",
		Actual:   "0 entries",
		Audit:    []audit.Entry{{ID: 1, Action: audit.ActionInsert, Table: "T", Values: `{"a":1}`}},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: audit_count")
	assert.Contains(t, msg, "[1] INSERT T {\"a\":1}")
}

func TestValuesMatch(t *testing.T) {
	assert.True(t, valuesMatch(1, int64(1)))
	assert.True(t, valuesMatch(2.5, 2.5))
	assert.True(t, valuesMatch(3, 3.0))
	assert.True(t, valuesMatch("a", "a"))
	assert.True(t, valuesMatch(nil, nil))
	assert.True(t, valuesMatch(map[string]any{"k": []any{1, "x"}}, map[string]any{"k": []any{int64(1), "x"}}))
	assert.False(t, valuesMatch("1", int64(1)))
	assert.False(t, valuesMatch(true, int64(1)))
}
