package query

import "github.com/roach88/uniorm/internal/column"

// Statement is one SQL statement in IR form.
type Statement interface {
	statementNode()
}

// Predicate is a row filter.
type Predicate interface {
	predicateNode()
}

// Column pairs a column name with its declaration.
type Column struct {
	Name string
	Spec *column.Spec
}

// Assignment is one column = value pair of an INSERT or UPDATE.
type Assignment struct {
	Column string
	Value  any
}

// CreateTable creates Table with Columns unless it already exists.
type CreateTable struct {
	Table   string
	Columns []Column
}

func (CreateTable) statementNode() {}

// TableExists yields one row when Table exists.
type TableExists struct {
	Table string
}

func (TableExists) statementNode() {}

// Insert adds one row. An empty Values list inserts a row of defaults.
type Insert struct {
	Table  string
	Values []Assignment
}

func (Insert) statementNode() {}

// Update sets columns on every row matching Where. Where is required.
type Update struct {
	Table string
	Set   []Assignment
	Where Predicate
}

func (Update) statementNode() {}

// Delete removes every row matching Where. Where is required.
type Delete struct {
	Table string
	Where Predicate
}

func (Delete) statementNode() {}

// Select reads rows from Table.
//
// An empty Columns list selects every column. A nil Where selects every row.
// OrderBy lists columns to sort ascending by; when empty the backend order
// is kept.
type Select struct {
	Table   string
	Columns []string
	Where   Predicate
	OrderBy []string
}

func (Select) statementNode() {}

// Equal matches rows whose Column equals Value. A nil Value matches NULL.
type Equal struct {
	Column string
	Value  any
}

func (Equal) predicateNode() {}

// And matches rows satisfying every predicate. An empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// AllEqual builds the conjunction of column equalities, in order. It
// returns nil for an empty list.
func AllEqual(pairs ...Assignment) Predicate {
	switch len(pairs) {
	case 0:
		return nil
	case 1:
		return Equal(pairs[0])
	}
	preds := make([]Predicate, len(pairs))
	for i, p := range pairs {
		preds[i] = Equal(p)
	}
	return And{Predicates: preds}
}

// Columns returns the column names of a predicate in order.
func Columns(p Predicate) []string {
	switch pred := p.(type) {
	case Equal:
		return []string{pred.Column}
	case And:
		var out []string
		for _, sub := range pred.Predicates {
			out = append(out, Columns(sub)...)
		}
		return out
	}
	return nil
}

// Names returns the column names of assignments in order.
func Names(as []Assignment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Column
	}
	return out
}
