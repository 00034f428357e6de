package declare

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
)

// LoadCUE loads every .cue file of the package in dir.
func LoadCUE(dir string) ([]Table, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("declarations directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return ParseCUE(v)
}

// ParseCUESource compiles a single CUE document. filename is used in error
// positions only.
func ParseCUESource(filename string, src []byte) ([]Table, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return ParseCUE(v)
}

// ParseCUE reads the top-level "table" struct of v.
func ParseCUE(v cue.Value) ([]Table, error) {
	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &Error{Message: "no table declarations found", Pos: v.Pos()}
	}
	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var tables []Table
	for iter.Next() {
		t, err := parseCUETable(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func parseCUETable(name string, v cue.Value) (Table, error) {
	t := Table{Name: name, pos: v.Pos()}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return t, &Error{Table: name, Message: "columns are required", Pos: v.Pos()}
	}
	iter, err := colsVal.Fields()
	if err != nil {
		return t, formatCUEError(err)
	}
	for iter.Next() {
		c, err := parseCUEColumn(name, iter.Label(), iter.Value())
		if err != nil {
			return t, err
		}
		t.Columns = append(t.Columns, c)
	}
	return t, nil
}

func parseCUEColumn(table, name string, v cue.Value) (Column, error) {
	c := Column{Name: name, pos: v.Pos()}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return c, c.errorf(table, "type is required")
	}
	typ, err := typeVal.String()
	if err != nil {
		return c, formatCUEError(err)
	}
	c.Type = typ

	flags := []struct {
		field string
		dst   *bool
	}{
		{"primary_key", &c.PrimaryKey},
		{"unique", &c.Unique},
		{"not_null", &c.NotNull},
	}
	for _, f := range flags {
		fv := v.LookupPath(cue.ParsePath(f.field))
		if !fv.Exists() {
			continue
		}
		b, err := fv.Bool()
		if err != nil {
			return c, formatCUEError(err)
		}
		*f.dst = b
	}

	if ref := v.LookupPath(cue.ParsePath("references")); ref.Exists() {
		s, err := ref.String()
		if err != nil {
			return c, formatCUEError(err)
		}
		c.References = s
	}

	if dv := v.LookupPath(cue.ParsePath("default")); dv.Exists() {
		d, err := cueScalar(dv)
		if err != nil {
			return c, err
		}
		c.Default = d
	}
	return c, nil
}

// cueScalar decodes a concrete scalar default.
func cueScalar(v cue.Value) (any, error) {
	var (
		out any
		err error
	)
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.IntKind:
		out, err = v.Int64()
	case cue.FloatKind, cue.NumberKind:
		out, err = v.Float64()
	case cue.StringKind:
		out, err = v.String()
	case cue.BoolKind:
		out, err = v.Bool()
	default:
		return nil, &Error{Message: fmt.Sprintf("default must be a concrete scalar, got %v", v.IncompleteKind()), Pos: v.Pos()}
	}
	if err != nil {
		return nil, formatCUEError(err)
	}
	return out, nil
}

// formatCUEError keeps the first error and its position, if any.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	out := &Error{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		out.Pos = positions[0]
	}
	return out
}
