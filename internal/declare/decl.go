package declare

import (
	"fmt"
	"time"

	"cuelang.org/go/cue/token"

	"github.com/roach88/uniorm/internal/column"
)

// Table is one declared table.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []Column `yaml:"columns"`

	pos token.Pos
}

// Column is one declared column.
type Column struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	PrimaryKey bool   `yaml:"primary_key"`
	Unique     bool   `yaml:"unique"`
	NotNull    bool   `yaml:"not_null"`
	Default    any    `yaml:"default"`
	References string `yaml:"references"`

	pos token.Pos
}

// References returns the distinct tables t's foreign keys point at, in
// column order.
func (t Table) References() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range t.Columns {
		if c.References != "" && !seen[c.References] {
			seen[c.References] = true
			out = append(out, c.References)
		}
	}
	return out
}

// nowDefault marks a timestamp default evaluated at write time.
const nowDefault = "now"

// Spec builds the column spec. target is the referenced schema for foreign
// keys and ignored otherwise.
func (c Column) Spec(table string, target column.Target) (*column.Spec, error) {
	var opts []column.Option
	if c.PrimaryKey {
		opts = append(opts, column.PrimaryKey())
	}
	if c.Unique {
		opts = append(opts, column.Unique())
	}
	if c.NotNull {
		opts = append(opts, column.NotNull())
	}
	if c.Default != nil {
		opts = append(opts, column.Default(c.defaultValue()))
	}

	if c.References != "" && column.Kind(c.Type) != column.KindForeignKey {
		return nil, c.errorf(table, "references is only valid on foreign_key columns")
	}

	switch column.Kind(c.Type) {
	case column.KindText:
		return column.Text(opts...), nil
	case column.KindInteger:
		return column.Integer(opts...), nil
	case column.KindReal:
		return column.Real(opts...), nil
	case column.KindBoolean:
		return column.Boolean(opts...), nil
	case column.KindTimestamp:
		return column.Timestamp(opts...), nil
	case column.KindJSON:
		return column.JSON(opts...), nil
	case column.KindForeignKey:
		if c.References == "" {
			return nil, c.errorf(table, "foreign_key column needs references")
		}
		if target == nil {
			return nil, c.errorf(table, "unknown referenced table %q", c.References)
		}
		return column.ForeignKey(target, opts...), nil
	case "":
		return nil, c.errorf(table, "type is required")
	default:
		return nil, c.errorf(table, "unknown type %q", c.Type)
	}
}

// defaultValue widens YAML integers to int64 and turns "now" on a
// timestamp column into a generator.
func (c Column) defaultValue() any {
	switch d := c.Default.(type) {
	case int:
		return int64(d)
	case string:
		if d == nowDefault && column.Kind(c.Type) == column.KindTimestamp {
			return func() any { return time.Now().UTC() }
		}
	}
	return c.Default
}

func (c Column) errorf(table, format string, args ...any) *Error {
	return &Error{Table: table, Column: c.Name, Message: fmt.Sprintf(format, args...), Pos: c.pos}
}

// Error is a declaration problem, positioned when the source is CUE.
type Error struct {
	Table   string
	Column  string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	field := e.Table
	if e.Column != "" {
		field += "." + e.Column
	}
	if field != "" {
		field += ": "
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s%s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), field, e.Message)
	}
	return field + e.Message
}
