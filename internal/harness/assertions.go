package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/uniorm/internal/audit"
	"github.com/roach88/uniorm/internal/orm"
)

// AssertionContext provides what state assertions query.
type AssertionContext struct {
	DB  *orm.DB
	Ctx context.Context
}

// AssertionError is returned when an assertion fails.
// It includes the audit trail to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Audit    []audit.Entry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Audit) > 0 {
		fmt.Fprintf(&buf, "\nAudit trail:\n")
		for _, entry := range e.Audit {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", entry.ID, entry.Action, entry.Table, entry.Values)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertAuditCount:
			err = assertAuditCount(result.Audit, a)
		case AssertAuditOrder:
			err = assertAuditOrder(result.Audit, a)
		case AssertFinalState:
			err = assertFinalState(actx, a)
		case AssertRowCount:
			err = assertRowCount(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func filterEntries(entries []audit.Entry, table string) []audit.Entry {
	if table == "" {
		return entries
	}
	var out []audit.Entry
	for _, e := range entries {
		if e.Table == table {
			out = append(out, e)
		}
	}
	return out
}

// assertAuditCount checks the number of entries, optionally filtered by
// table and action.
func assertAuditCount(entries []audit.Entry, a Assertion) error {
	count := 0
	for _, e := range filterEntries(entries, a.Table) {
		if a.Action == "" || string(e.Action) == a.Action {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertAuditCount,
			Expected: fmt.Sprintf("%d entries (table=%q action=%q)", a.Count, a.Table, a.Action),
			Actual:   fmt.Sprintf("%d entries", count),
			Audit:    entries,
		}
	}
	return nil
}

// assertAuditOrder checks that the actions occur in the given order.
// Other entries may appear in between.
func assertAuditOrder(entries []audit.Entry, a Assertion) error {
	next := 0
	for _, e := range filterEntries(entries, a.Table) {
		if next < len(a.Actions) && string(e.Action) == a.Actions[next] {
			next++
		}
	}
	if next < len(a.Actions) {
		return &AssertionError{
			Type:     AssertAuditOrder,
			Expected: fmt.Sprintf("actions in order: %v", a.Actions),
			Actual:   fmt.Sprintf("matched %d of %d, missing %s", next, len(a.Actions), a.Actions[next]),
			Audit:    entries,
		}
	}
	return nil
}

// assertFinalState looks up the single row matching where and checks the
// expected values with subset semantics.
func assertFinalState(actx *AssertionContext, a Assertion) error {
	s, ok := actx.DB.Schema(a.Table)
	if !ok {
		return fmt.Errorf("table %q is not declared", a.Table)
	}
	rec, found, err := actx.DB.Find(actx.Ctx, s, orm.Values(a.Where))
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("one row in %s where %s", a.Table, formatWhere(a.Where)),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if !found {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", a.Table, formatWhere(a.Where)),
			Actual:   "row not found",
		}
	}

	actual := plainValues(rec)
	for _, k := range sortedKeys(a.Expect) {
		got, exists := actual[k]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", k),
				Actual:   fmt.Sprintf("columns: %v", s.Columns()),
			}
		}
		if !valuesMatch(a.Expect[k], got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", k, a.Expect[k], a.Expect[k]),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", k, got, got),
			}
		}
	}
	return nil
}

func assertRowCount(actx *AssertionContext, a Assertion) error {
	s, ok := actx.DB.Schema(a.Table)
	if !ok {
		return fmt.Errorf("table %q is not declared", a.Table)
	}
	records, err := actx.DB.All(actx.Ctx, s)
	if err != nil {
		return err
	}
	if len(records) != a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s", a.Count, a.Table),
			Actual:   fmt.Sprintf("%d rows", len(records)),
		}
	}
	return nil
}

// formatWhere creates a human-readable description of where conditions.
func formatWhere(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
