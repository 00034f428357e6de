package orm

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/roach88/uniorm/internal/column"
	"github.com/roach88/uniorm/internal/query"
)

// State is a record's lifecycle stage.
type State int

const (
	StateUnsaved State = iota
	StatePersisted
	StateDeleted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnsaved:
		return "unsaved"
	case StatePersisted:
		return "persisted"
	case StateDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Record is one row of a registered schema.
//
// Declared columns hold application values. Names outside the schema can
// be set too; they live beside the row and never reach storage.
type Record struct {
	db     *DB
	schema *Schema
	values map[string]any
	extra  map[string]any
	state  State
}

// Schema returns the record's schema.
func (r *Record) Schema() *Schema { return r.schema }

// State returns the lifecycle stage.
func (r *Record) State() State { return r.state }

// TableName returns the schema name.
func (r *Record) TableName() string { return r.schema.name }

// ID returns the primary key, false once the record is deleted.
func (r *Record) ID() (int64, bool) {
	id, ok := r.values[r.schema.pk].(int64)
	return id, ok
}

// Get returns an attribute. Foreign keys come back as column.Ref without
// any lookup.
func (r *Record) Get(name string) (any, bool) {
	if _, declared := r.schema.index[name]; declared {
		return r.values[name], true
	}
	v, ok := r.extra[name]
	return v, ok
}

// Values returns a copy of the declared attributes.
func (r *Record) Values() Values {
	out := make(Values, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Set assigns an attribute. Declared columns run the column's default,
// validation and conversion, so the stored value is exactly what a later
// read would return. The primary key cannot be set.
func (r *Record) Set(name string, v any) error {
	spec, declared := r.schema.Column(name)
	if !declared {
		if r.extra == nil {
			r.extra = make(map[string]any)
		}
		r.extra[name] = v
		return nil
	}
	if name == r.schema.pk {
		return valueErr("set", r.schema.name, "primary key %q is read-only", name)
	}
	normalized, err := spec.Normalize(name, v)
	if err != nil {
		return validationErr("set", r.schema.name, err)
	}
	r.values[name] = normalized
	return nil
}

// Ref returns the foreign key value of a column. A null key returns the
// zero Ref and false.
func (r *Record) Ref(name string) (column.Ref, bool, error) {
	spec, ok := r.schema.Column(name)
	if !ok || spec.Kind() != column.KindForeignKey {
		return column.Ref{}, false, valueErr("ref", r.schema.name, "%q is not a foreign key column", name)
	}
	ref, ok := r.values[name].(column.Ref)
	return ref, ok, nil
}

// Resolve returns the row a foreign key points at, or nil for a null key.
//
// The first call looks the target up by primary key and caches it in the
// record; later calls return the cached row without a lookup. A missing
// target is a not-found error.
func (r *Record) Resolve(ctx context.Context, name string) (*Record, error) {
	ref, ok, err := r.Ref(name)
	if err != nil || !ok {
		return nil, err
	}
	if cached, isRecord := ref.Row.(*Record); isRecord {
		return cached, nil
	}

	spec, _ := r.schema.Column(name)
	target, ok := r.db.Schema(spec.Target().Name())
	if !ok {
		return nil, &Error{Code: CodeSchema, Op: "resolve", Table: r.schema.name,
			Message: fmt.Sprintf("target table %q is not registered", spec.Target().Name())}
	}

	rec, found, err := r.db.Find(ctx, target, Values{target.pk: ref.ID})
	if err != nil {
		return nil, fmt.Errorf("resolve %s.%s: %w", r.schema.name, name, err)
	}
	if !found {
		return nil, &Error{Code: CodeNotFound, Op: "resolve", Table: target.name,
			Message: fmt.Sprintf("no row with %s = %d referenced by %s.%s", target.pk, ref.ID, r.schema.name, name)}
	}
	r.values[name] = column.Resolved(rec)
	return rec, nil
}

// Save writes every non-key column back, keyed by the primary key.
func (r *Record) Save(ctx context.Context) error {
	id, ok := r.ID()
	if !ok {
		return valueErr("save", r.schema.name, "record has no primary key")
	}

	set := make([]query.Assignment, 0, len(r.schema.columns)-1)
	for _, c := range r.schema.columns {
		if c.Name == r.schema.pk {
			continue
		}
		stored, err := c.Spec.ToStorage(r.values[c.Name])
		if err != nil {
			return validationErr("save", r.schema.name, withColumn(err, c.Name))
		}
		set = append(set, query.Assignment{Column: c.Name, Value: stored})
	}
	if len(set) == 0 {
		return nil
	}

	where := []query.Assignment{{Column: r.schema.pk, Value: id}}
	if err := r.db.gw.Update(ctx, r.schema.name, set, where); err != nil {
		return fmt.Errorf("save %s: %w", r.schema.name, err)
	}
	return nil
}

// Delete removes the row, clears the primary key and marks the record
// Deleted.
func (r *Record) Delete(ctx context.Context) error {
	id, ok := r.ID()
	if !ok {
		return valueErr("delete", r.schema.name, "record has no primary key")
	}
	where := []query.Assignment{{Column: r.schema.pk, Value: id}}
	if err := r.db.gw.Delete(ctx, r.schema.name, where); err != nil {
		return fmt.Errorf("delete %s: %w", r.schema.name, err)
	}
	r.values[r.schema.pk] = nil
	r.state = StateDeleted
	return nil
}

// Equal reports whether two records hold the same row: same schema and
// equal declared values. Timestamps compare by instant and foreign keys
// by identifier.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.schema.name != o.schema.name {
		return false
	}
	for _, c := range r.schema.columns {
		if !valuesEqual(r.values[c.Name], o.values[c.Name]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case column.Ref:
		bv, ok := b.(column.Ref)
		return ok && av.ID == bv.ID
	}
	return reflect.DeepEqual(a, b)
}

// String renders the record as <Table col=value ...> in column order.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(r.schema.name)
	for _, c := range r.schema.columns {
		fmt.Fprintf(&b, " %s=", c.Name)
		switch v := r.values[c.Name].(type) {
		case nil:
			b.WriteString("null")
		case string:
			fmt.Fprintf(&b, "%q", v)
		case time.Time:
			b.WriteString(v.Format(time.RFC3339Nano))
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	b.WriteString(">")
	return b.String()
}
