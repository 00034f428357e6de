package orm

import (
	"regexp"

	"github.com/roach88/uniorm/internal/column"
	"github.com/roach88/uniorm/internal/query"
)

// identifierPattern restricts table and column names. Names are quoted in
// every statement as well.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ColumnDecl names one column of a schema declaration.
type ColumnDecl struct {
	Name string
	Spec *column.Spec
}

// Col is a shorthand for ColumnDecl.
func Col(name string, spec *column.Spec) ColumnDecl {
	return ColumnDecl{Name: name, Spec: spec}
}

// Schema is the immutable declaration of one table. It is shared by every
// record of the table and doubles as the foreign key target handle.
type Schema struct {
	name    string
	columns []ColumnDecl
	index   map[string]int
	pk      string
}

func newSchema(name string, cols []ColumnDecl) (*Schema, error) {
	if !identifierPattern.MatchString(name) {
		return nil, schemaErr(name, "invalid table name %q", name)
	}
	s := &Schema{
		name:    name,
		columns: append([]ColumnDecl(nil), cols...),
		index:   make(map[string]int, len(cols)),
	}

	var pks []string
	for i, c := range cols {
		if !identifierPattern.MatchString(c.Name) {
			return nil, schemaErr(name, "invalid column name %q", c.Name)
		}
		if c.Spec == nil {
			return nil, schemaErr(name, "column %q has no type", c.Name)
		}
		if _, dup := s.index[c.Name]; dup {
			return nil, schemaErr(name, "duplicate column %q", c.Name)
		}
		s.index[c.Name] = i

		if c.Spec.IsPrimaryKey() {
			pks = append(pks, c.Name)
		}
		if c.Spec.Kind() == column.KindForeignKey && c.Spec.Target() == nil {
			return nil, schemaErr(name, "foreign key %q has no target", c.Name)
		}
		if err := c.Spec.CheckDefault(c.Name); err != nil {
			return nil, schemaErr(name, "bad default: %v", err)
		}
	}

	switch len(pks) {
	case 0:
		return nil, schemaErr(name, "no primary key column")
	case 1:
	default:
		return nil, schemaErr(name, "more than one primary key column %v", pks)
	}
	pk := s.columns[s.index[pks[0]]].Spec
	if pk.Kind() != column.KindInteger {
		return nil, schemaErr(name, "primary key %q must be an integer column", pks[0])
	}
	s.pk = pks[0]
	return s, nil
}

// Name returns the table name.
func (s *Schema) Name() string { return s.name }

// PrimaryKey returns the primary key column name.
func (s *Schema) PrimaryKey() string { return s.pk }

// Columns returns the column names in declaration order.
func (s *Schema) Columns() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Decls returns a copy of the column declarations.
func (s *Schema) Decls() []ColumnDecl {
	return append([]ColumnDecl(nil), s.columns...)
}

// Column returns the spec of a declared column.
func (s *Schema) Column(name string) (*column.Spec, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.columns[i].Spec, true
}

// References returns the distinct table names this schema's foreign keys
// point at, in declaration order.
func (s *Schema) References() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range s.columns {
		if t := c.Spec.Target(); t != nil && !seen[t.Name()] {
			seen[t.Name()] = true
			out = append(out, t.Name())
		}
	}
	return out
}

func (s *Schema) equivalent(cols []ColumnDecl) bool {
	if len(cols) != len(s.columns) {
		return false
	}
	for i, c := range cols {
		if c.Name != s.columns[i].Name || !c.Spec.Equivalent(s.columns[i].Spec) {
			return false
		}
	}
	return true
}

func (s *Schema) queryColumns() []query.Column {
	out := make([]query.Column, len(s.columns))
	for i, c := range s.columns {
		out[i] = query.Column{Name: c.Name, Spec: c.Spec}
	}
	return out
}
