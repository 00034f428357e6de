package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/uniorm/internal/audit"
	"github.com/roach88/uniorm/internal/column"
	"github.com/roach88/uniorm/internal/declare"
	"github.com/roach88/uniorm/internal/gateway"
	"github.com/roach88/uniorm/internal/orm"
	"github.com/roach88/uniorm/internal/store"
	"github.com/roach88/uniorm/internal/testutil"
	"github.com/roach88/uniorm/internal/value"
)

// Harness executes one scenario.
type Harness struct {
	db      *orm.DB
	sink    *audit.MemorySink
	records map[string]*orm.Record
	logger  *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario on a fresh in-memory database and returns the
// result. Step and assertion failures are reported in the result; the
// error is reserved for setup problems such as unreadable declarations.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		records: make(map[string]*orm.Record),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	conn, err := store.OpenSQLite(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	h.sink = audit.NewMemorySink()
	gw, err := gateway.New(conn,
		gateway.WithLogger(h.logger),
		gateway.WithAudit(h.sink,
			audit.WithClock(testutil.NewDeterministicClock()),
			audit.WithIDGenerator(testutil.NewSequentialIDs("")),
		),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}
	h.db = orm.New(gw, orm.WithLogger(h.logger))
	defer h.db.Close()

	ctx := context.Background()
	for _, path := range scenario.Declarations {
		if _, err := declare.ApplyPath(ctx, h.db, path); err != nil {
			return nil, fmt.Errorf("failed to apply declarations %s: %w", path, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.execute(ctx, step)
		event.Step = i + 1
		event.Op = step.Op
		if event.Table == "" {
			event.Table = step.Table
		}
		if err != nil {
			if event.Outcome == "" {
				event.Outcome = codeInternal
			}
			if step.Expect == nil || step.Expect.Error != event.Outcome {
				result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
			}
		}
		result.Trace = append(result.Trace, event)
		for _, msg := range checkExpect(i, step, event) {
			result.AddError(msg)
		}
		h.logger.Info("step completed", "step", i+1, "op", step.Op, "outcome", event.Outcome)
	}

	result.Audit = h.sink.Entries()
	actx := &AssertionContext{DB: h.db, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step. A returned error with an empty outcome is a
// harness failure; engine errors are folded into the outcome instead.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	var event TraceEvent

	var (
		rec *orm.Record
		err error
	)
	switch step.Op {
	case OpCreate:
		var s *orm.Schema
		var vals orm.Values
		if s, err = h.schema(step.Table); err != nil {
			return event, err
		}
		if vals, err = h.args(s, step.Values); err != nil {
			return event, err
		}
		rec, err = h.db.Create(ctx, s, vals)

	case OpFind:
		var s *orm.Schema
		var where orm.Values
		if s, err = h.schema(step.Table); err != nil {
			return event, err
		}
		if where, err = h.args(s, step.Where); err != nil {
			return event, err
		}
		var found bool
		rec, found, err = h.db.Find(ctx, s, where)
		if err == nil {
			event.Found = &found
		}

	case OpAll:
		var s *orm.Schema
		if s, err = h.schema(step.Table); err != nil {
			return event, err
		}
		var records []*orm.Record
		records, err = h.db.All(ctx, s)
		if err == nil {
			n := len(records)
			event.Count = &n
		}

	case OpDeleteWhere:
		var s *orm.Schema
		var where orm.Values
		if s, err = h.schema(step.Table); err != nil {
			return event, err
		}
		if where, err = h.args(s, step.Where); err != nil {
			return event, err
		}
		err = h.db.DeleteWhere(ctx, s, where)

	case OpSet, OpSave, OpDelete, OpResolve:
		var bound *orm.Record
		if bound, err = h.record(step.Ref); err != nil {
			return event, err
		}
		event.Table = bound.TableName()
		rec, err = h.onRecord(ctx, bound, step)

	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}

	event.Outcome = OutcomeOK
	if err != nil {
		event.Outcome = errorCode(err)
		if event.Outcome == codeInternal {
			return event, err
		}
		return event, nil
	}
	if rec != nil {
		event.Values = plainValues(rec)
		if step.As != "" {
			h.records[step.As] = rec
		}
	}
	return event, nil
}

func (h *Harness) onRecord(ctx context.Context, rec *orm.Record, step Step) (*orm.Record, error) {
	switch step.Op {
	case OpSet:
		vals, err := h.args(rec.Schema(), step.Values)
		if err != nil {
			return nil, err
		}
		for _, k := range sortedKeys(vals) {
			if err := rec.Set(k, vals[k]); err != nil {
				return nil, err
			}
		}
		return rec, nil
	case OpSave:
		return rec, rec.Save(ctx)
	case OpDelete:
		return rec, rec.Delete(ctx)
	default:
		return rec.Resolve(ctx, step.Column)
	}
}

func (h *Harness) schema(name string) (*orm.Schema, error) {
	s, ok := h.db.Schema(name)
	if !ok {
		return nil, fmt.Errorf("table %q is not declared", name)
	}
	return s, nil
}

func (h *Harness) record(name string) (*orm.Record, error) {
	rec, ok := h.records[name]
	if !ok {
		return nil, fmt.Errorf("no record bound as %q", name)
	}
	return rec, nil
}

// args converts YAML values to application values: "$name" becomes the
// bound record and timestamp text is parsed as RFC 3339.
func (h *Harness) args(s *orm.Schema, raw map[string]any) (orm.Values, error) {
	out := make(orm.Values, len(raw))
	for k, v := range raw {
		if str, ok := v.(string); ok {
			if name, isRef := strings.CutPrefix(str, "$"); isRef {
				rec, err := h.record(name)
				if err != nil {
					return nil, err
				}
				out[k] = rec
				continue
			}
			if spec, declared := s.Column(k); declared && spec.Kind() == column.KindTimestamp {
				t, err := time.Parse(time.RFC3339Nano, str)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", k, err)
				}
				out[k] = t
				continue
			}
		}
		out[k] = v
	}
	return out, nil
}

const codeInternal = "ERROR"

// errorCode maps engine errors to their code. Anything else is internal.
func errorCode(err error) string {
	var e *orm.Error
	if errors.As(err, &e) {
		return string(e.Code)
	}
	var ve *column.ValidationError
	if errors.As(err, &ve) {
		return string(orm.CodeValidation)
	}
	return codeInternal
}

// checkExpect compares a step's event with its expect clause.
func checkExpect(index int, step Step, event TraceEvent) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: ", index, step.Op)+fmt.Sprintf(format, args...))
	}

	want := OutcomeOK
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if event.Outcome != want {
		// internal failures are reported with their cause by Run
		if event.Outcome != codeInternal {
			fail("expected outcome %s, got %s", want, event.Outcome)
		}
		return errs
	}
	if step.Expect == nil {
		return errs
	}

	if step.Expect.Found != nil && (event.Found == nil || *event.Found != *step.Expect.Found) {
		fail("expected found=%v", *step.Expect.Found)
	}
	if step.Expect.Count != nil && (event.Count == nil || *event.Count != *step.Expect.Count) {
		got := "none"
		if event.Count != nil {
			got = fmt.Sprint(*event.Count)
		}
		fail("expected count %d, got %s", *step.Expect.Count, got)
	}
	for _, k := range sortedKeys(step.Expect.Values) {
		actual, ok := event.Values[k]
		if !ok {
			fail("field %q not in result", k)
			continue
		}
		if !valuesMatch(step.Expect.Values[k], actual) {
			fail("field %q = %v, expected %v", k, actual, step.Expect.Values[k])
		}
	}
	return errs
}

// plainValues renders a record's declared values as JSON-friendly Go
// values: timestamps as RFC 3339 text and foreign keys as identifiers.
func plainValues(rec *orm.Record) map[string]any {
	out := make(map[string]any)
	for k, v := range rec.Values() {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case column.Ref:
		return x.ID
	case value.Value:
		return value.Native(x)
	}
	return v
}

// valuesMatch compares an expected YAML value with an actual plain value.
// Numbers compare by magnitude regardless of integer or float form.
func valuesMatch(expected, actual any) bool {
	ev, err := value.From(expected)
	if err != nil {
		return false
	}
	av, err := value.From(actual)
	if err != nil {
		return false
	}
	if ef, ok := number(ev); ok {
		af, ok := number(av)
		return ok && ef == af
	}
	eb, err := value.Marshal(ev)
	if err != nil {
		return false
	}
	ab, err := value.Marshal(av)
	if err != nil {
		return false
	}
	return string(eb) == string(ab)
}

func number(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n), true
	case value.Float:
		return float64(n), true
	}
	return 0, false
}
