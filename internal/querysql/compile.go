// Package querysql compiles statement IR into parameterized SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/uniorm/internal/dialect"
	"github.com/roach88/uniorm/internal/query"
)

// Compiler compiles query IR to parameterized SQL for one dialect.
//
// Identifiers are always quoted through the dialect and values are always
// returned as parameters, never interpolated. Statements are assembled with
// ? markers and rebound to the dialect's bind syntax as the last step.
type Compiler struct {
	Dialect dialect.Dialect
}

// New creates a Compiler for d.
func New(d dialect.Dialect) *Compiler {
	return &Compiler{Dialect: d}
}

// Compile converts a statement to SQL. Returns (sql, params, error).
func (c *Compiler) Compile(stmt query.Statement) (string, []any, error) {
	stmt = deref(stmt)
	if err := query.Validate(stmt); err != nil {
		return "", nil, err
	}

	var (
		sql    string
		params []any
	)
	switch s := stmt.(type) {
	case query.CreateTable:
		sql = c.compileCreateTable(s)
	case query.TableExists:
		sql, params = c.Dialect.TableExistsQuery(), []any{s.Table}
		return sql, params, nil
	case query.Insert:
		sql, params = c.compileInsert(s)
	case query.Update:
		sql, params = c.compileUpdate(s)
	case query.Delete:
		sql, params = c.compileDelete(s)
	case query.Select:
		sql, params = c.compileSelect(s)
	default:
		return "", nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
	return c.Dialect.Rebind(sql), params, nil
}

// deref accepts pointer forms of statements.
func deref(stmt query.Statement) query.Statement {
	switch s := stmt.(type) {
	case *query.CreateTable:
		return *s
	case *query.TableExists:
		return *s
	case *query.Insert:
		return *s
	case *query.Update:
		return *s
	case *query.Delete:
		return *s
	case *query.Select:
		return *s
	}
	return stmt
}

func (c *Compiler) quote(name string) string {
	return c.Dialect.QuoteIdent(name)
}

func (c *Compiler) quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = c.quote(n)
	}
	return strings.Join(quoted, ", ")
}

func (c *Compiler) compileCreateTable(s query.CreateTable) string {
	defs := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		defs[i] = col.Spec.Definition(col.Name, c.Dialect)
	}
	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		c.quote(s.Table),
		strings.Join(defs, ", "))
	if opts := c.Dialect.TableOptions(); opts != "" {
		sql += " " + opts
	}
	return sql
}

func (c *Compiler) compileInsert(s query.Insert) (string, []any) {
	if len(s.Values) == 0 {
		if c.Dialect.Driver() == dialect.DriverMySQL {
			return fmt.Sprintf("INSERT INTO %s () VALUES ()", c.quote(s.Table)), nil
		}
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", c.quote(s.Table)), nil
	}

	params := make([]any, len(s.Values))
	markers := make([]string, len(s.Values))
	for i, a := range s.Values {
		params[i] = a.Value
		markers[i] = "?"
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.quote(s.Table),
		c.quoteAll(query.Names(s.Values)),
		strings.Join(markers, ", "))
	return sql, params
}

func (c *Compiler) compileUpdate(s query.Update) (string, []any) {
	sets := make([]string, len(s.Set))
	params := make([]any, 0, len(s.Set))
	for i, a := range s.Set {
		sets[i] = c.quote(a.Column) + " = ?"
		params = append(params, a.Value)
	}
	where, whereParams := c.compilePredicate(s.Where)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		c.quote(s.Table),
		strings.Join(sets, ", "),
		where)
	return sql, append(params, whereParams...)
}

func (c *Compiler) compileDelete(s query.Delete) (string, []any) {
	where, params := c.compilePredicate(s.Where)
	return fmt.Sprintf("DELETE FROM %s WHERE %s", c.quote(s.Table), where), params
}

func (c *Compiler) compileSelect(s query.Select) (string, []any) {
	cols := "*"
	if len(s.Columns) > 0 {
		cols = c.quoteAll(s.Columns)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, c.quote(s.Table))

	var params []any
	if s.Where != nil {
		where, whereParams := c.compilePredicate(s.Where)
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = whereParams
	}

	if len(s.OrderBy) > 0 {
		order := make([]string, len(s.OrderBy))
		for i, col := range s.OrderBy {
			order[i] = c.quote(col) + " ASC"
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(order, ", "))
	}
	return b.String(), params
}

// compilePredicate renders a filter. A nil value compiles to IS NULL since
// "= NULL" never matches.
func (c *Compiler) compilePredicate(p query.Predicate) (string, []any) {
	switch pred := p.(type) {
	case query.Equal:
		if pred.Value == nil {
			return c.quote(pred.Column) + " IS NULL", nil
		}
		return c.quote(pred.Column) + " = ?", []any{pred.Value}
	case query.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		var params []any
		for _, sub := range pred.Predicates {
			sql, subParams := c.compilePredicate(sub)
			parts = append(parts, sql)
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params
	}
	return "1 = 1", nil
}
