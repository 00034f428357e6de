package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/uniorm/internal/column"
	"github.com/roach88/uniorm/internal/orm"
)

// ErrInvalid is wrapped by every view declaration error.
var ErrInvalid = errors.New("invalid view")

// Row is one flattened result row.
type Row map[string]any

type join struct {
	source  string
	target  *orm.Schema
	columns []string
}

// View describes a base schema projection plus foreign key joins.
//
// Builder methods record the first declaration error and keep returning
// the view, so chains can be written without intermediate checks. The
// error surfaces from Err and Rows.
type View struct {
	name    string
	base    *orm.Schema
	columns []string
	joins   []join
	err     error
}

// New creates a view selecting every column of base.
func New(base *orm.Schema) *View {
	v := &View{base: base}
	if base == nil {
		v.err = fmt.Errorf("%w: nil base schema", ErrInvalid)
		return v
	}
	v.name = base.Name() + "View"
	v.columns = base.Columns()
	return v
}

// Named overrides the default "<Base>View" name.
func (v *View) Named(name string) *View {
	v.name = name
	return v
}

// Name returns the view name.
func (v *View) Name() string { return v.name }

// Err returns the first declaration error, if any.
func (v *View) Err() error { return v.err }

// Select replaces the projected base columns. No columns selects every
// column again.
func (v *View) Select(cols ...string) *View {
	if v.err != nil {
		return v
	}
	if len(cols) == 0 {
		v.columns = v.base.Columns()
		return v
	}
	for _, c := range cols {
		if _, ok := v.base.Column(c); !ok {
			v.err = fmt.Errorf("%w: %s has no column %q", ErrInvalid, v.base.Name(), c)
			return v
		}
	}
	v.columns = append([]string(nil), cols...)
	return v
}

// Join injects columns of the row that base column source references.
// source must be a foreign key of the base schema targeting target. No
// columns injects every target column.
func (v *View) Join(source string, target *orm.Schema, cols ...string) *View {
	if v.err != nil {
		return v
	}
	if target == nil {
		v.err = fmt.Errorf("%w: join %q: nil target schema", ErrInvalid, source)
		return v
	}
	spec, ok := v.base.Column(source)
	if !ok {
		v.err = fmt.Errorf("%w: %s has no column %q", ErrInvalid, v.base.Name(), source)
		return v
	}
	if spec.Kind() != column.KindForeignKey || spec.Target().Name() != target.Name() {
		v.err = fmt.Errorf("%w: %s.%s is not a foreign key to %s", ErrInvalid, v.base.Name(), source, target.Name())
		return v
	}
	if len(cols) == 0 {
		cols = target.Columns()
	}
	for _, c := range cols {
		if _, ok := target.Column(c); !ok {
			v.err = fmt.Errorf("%w: %s has no column %q", ErrInvalid, target.Name(), c)
			return v
		}
	}
	v.joins = append(v.joins, join{source: source, target: target, columns: append([]string(nil), cols...)})
	return v
}

// Columns returns the output keys in the order they are produced.
func (v *View) Columns() []string {
	seen := make(map[string]bool, len(v.columns))
	out := make([]string, 0, len(v.columns))
	for _, c := range v.columns {
		seen[c] = true
		out = append(out, c)
	}
	for _, j := range v.joins {
		for _, c := range j.columns {
			key := joinKey(seen, j.target.Name(), c)
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// Rows evaluates the view against db, one row per base record in primary
// key order. A null foreign key injects nil for every joined column; a
// reference to a missing row is an error.
func (v *View) Rows(ctx context.Context, db *orm.DB) ([]Row, error) {
	if v.err != nil {
		return nil, v.err
	}
	records, err := db.All(ctx, v.base)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", v.name, err)
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row, err := v.flatten(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("view %s: %w", v.name, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (v *View) flatten(ctx context.Context, rec *orm.Record) (Row, error) {
	row := make(Row, len(v.columns))
	seen := make(map[string]bool, len(v.columns))
	for _, c := range v.columns {
		val, _ := rec.Get(c)
		row[c] = flattenValue(val)
		seen[c] = true
	}

	for _, j := range v.joins {
		target, err := rec.Resolve(ctx, j.source)
		if err != nil {
			return nil, err
		}
		for _, c := range j.columns {
			key := joinKey(seen, j.target.Name(), c)
			seen[key] = true
			if target == nil {
				row[key] = nil
				continue
			}
			val, _ := target.Get(c)
			row[key] = flattenValue(val)
		}
	}
	return row, nil
}

// joinKey is the plain column name unless it is taken.
func joinKey(seen map[string]bool, table, col string) string {
	if !seen[col] {
		return col
	}
	return table + "." + col
}

func flattenValue(v any) any {
	if ref, ok := v.(column.Ref); ok {
		return ref.ID
	}
	return v
}
