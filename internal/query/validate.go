package query

import (
	"errors"
	"fmt"
)

// ErrEmptyFilter rejects UPDATE and DELETE statements without a filter,
// which would otherwise touch every row.
var ErrEmptyFilter = errors.New("update and delete require a non-empty filter")

// Validate checks the structural rules of a statement. It does not know
// about any schema.
func Validate(stmt Statement) error {
	switch s := stmt.(type) {
	case nil:
		return errors.New("nil statement")
	case CreateTable:
		if err := requireTable(s.Table); err != nil {
			return err
		}
		if len(s.Columns) == 0 {
			return fmt.Errorf("create table %s: no columns", s.Table)
		}
		seen := make(map[string]bool, len(s.Columns))
		for _, c := range s.Columns {
			if c.Name == "" || c.Spec == nil {
				return fmt.Errorf("create table %s: incomplete column %q", s.Table, c.Name)
			}
			if seen[c.Name] {
				return fmt.Errorf("create table %s: duplicate column %q", s.Table, c.Name)
			}
			seen[c.Name] = true
		}
		return nil
	case TableExists:
		return requireTable(s.Table)
	case Insert:
		if err := requireTable(s.Table); err != nil {
			return err
		}
		return validateAssignments(s.Values)
	case Update:
		if err := requireTable(s.Table); err != nil {
			return err
		}
		if len(s.Set) == 0 {
			return fmt.Errorf("update %s: nothing to set", s.Table)
		}
		if err := validateAssignments(s.Set); err != nil {
			return err
		}
		return requireFilter(s.Where)
	case Delete:
		if err := requireTable(s.Table); err != nil {
			return err
		}
		return requireFilter(s.Where)
	case Select:
		if err := requireTable(s.Table); err != nil {
			return err
		}
		for _, c := range s.Columns {
			if c == "" {
				return errors.New("select: empty column name")
			}
		}
		if s.Where != nil {
			return validatePredicate(s.Where)
		}
		return nil
	default:
		return fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

func requireTable(name string) error {
	if name == "" {
		return errors.New("empty table name")
	}
	return nil
}

func validateAssignments(as []Assignment) error {
	seen := make(map[string]bool, len(as))
	for _, a := range as {
		if a.Column == "" {
			return errors.New("empty column name")
		}
		if seen[a.Column] {
			return fmt.Errorf("column %q assigned twice", a.Column)
		}
		seen[a.Column] = true
	}
	return nil
}

func requireFilter(p Predicate) error {
	if p == nil || len(Columns(p)) == 0 {
		return ErrEmptyFilter
	}
	return validatePredicate(p)
}

func validatePredicate(p Predicate) error {
	switch pred := p.(type) {
	case Equal:
		if pred.Column == "" {
			return errors.New("filter: empty column name")
		}
		return nil
	case And:
		for _, sub := range pred.Predicates {
			if err := validatePredicate(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}
