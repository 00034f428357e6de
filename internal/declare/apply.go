package declare

import (
	"context"
	"fmt"

	"github.com/roach88/uniorm/internal/column"
	"github.com/roach88/uniorm/internal/orm"
)

// Apply registers tables on db in dependency order and returns the schemas
// in that order. Foreign keys may also target schemas already registered
// on db.
func Apply(ctx context.Context, db *orm.DB, tables []Table) ([]*orm.Schema, error) {
	ordered, err := Order(tables, func(name string) bool {
		_, ok := db.Schema(name)
		return ok
	})
	if err != nil {
		return nil, err
	}

	schemas := make([]*orm.Schema, 0, len(ordered))
	for _, t := range ordered {
		cols, err := t.decls(db)
		if err != nil {
			return nil, err
		}
		s, err := db.Register(ctx, t.Name, cols...)
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", t.Name, err)
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

func (t Table) decls(db *orm.DB) ([]orm.ColumnDecl, error) {
	cols := make([]orm.ColumnDecl, 0, len(t.Columns))
	for _, c := range t.Columns {
		var target column.Target
		if c.References != "" {
			if s, ok := db.Schema(c.References); ok {
				target = s
			}
		}
		spec, err := c.Spec(t.Name, target)
		if err != nil {
			return nil, err
		}
		cols = append(cols, orm.Col(c.Name, spec))
	}
	return cols, nil
}

// ApplyPath loads declarations from path and applies them.
func ApplyPath(ctx context.Context, db *orm.DB, path string) ([]*orm.Schema, error) {
	tables, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, db, tables)
}
