package harness

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/uniorm/internal/value"
)

// Snapshot renders a result as canonical JSON lines: one line per step
// followed by one line per audit entry. Audit values are embedded as JSON
// rather than as escaped text.
func Snapshot(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	write := func(m map[string]any) error {
		v, err := value.From(m)
		if err != nil {
			return err
		}
		line, err := value.MarshalCanonical(v)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
		return nil
	}

	for _, ev := range result.Trace {
		m := map[string]any{"step": ev.Step, "op": ev.Op, "outcome": ev.Outcome}
		if ev.Table != "" {
			m["table"] = ev.Table
		}
		if ev.Found != nil {
			m["found"] = *ev.Found
		}
		if ev.Count != nil {
			m["count"] = *ev.Count
		}
		if ev.Values != nil {
			m["values"] = ev.Values
		}
		if err := write(m); err != nil {
			return nil, fmt.Errorf("step %d: %w", ev.Step, err)
		}
	}

	for _, e := range result.Audit {
		vals, err := value.Decode([]byte(e.Values))
		if err != nil {
			return nil, fmt.Errorf("audit %d: %w", e.ID, err)
		}
		m := map[string]any{
			"audit":     e.ID,
			"event_id":  e.EventID,
			"table":     e.Table,
			"action":    string(e.Action),
			"keys":      e.Keys,
			"values":    vals,
			"timestamp": e.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := write(m); err != nil {
			return nil, fmt.Errorf("audit %d: %w", e.ID, err)
		}
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario, fails the test if it does not pass
// and compares its snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		t.Errorf("scenario %s failed:\n%v", scenario.Name, result.Errors)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
