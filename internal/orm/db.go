package orm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/uniorm/internal/column"
	"github.com/roach88/uniorm/internal/query"
)

// Gateway is the backend surface the record engine drives.
// *gateway.Gateway implements it.
type Gateway interface {
	CreateTable(ctx context.Context, name string, cols []query.Column) error
	Insert(ctx context.Context, table, pk string, values []query.Assignment) (int64, error)
	Update(ctx context.Context, table string, set, where []query.Assignment) error
	Delete(ctx context.Context, table string, where []query.Assignment) error
	Query(ctx context.Context, sel query.Select) ([][]any, error)
	Close() error
}

// Values maps column names to application values.
type Values map[string]any

// DB is the record engine bound to one gateway.
type DB struct {
	gw     Gateway
	logger *slog.Logger

	mu      sync.RWMutex
	schemas map[string]*Schema
	order   []string
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) { db.logger = l }
}

// New creates a DB over gw.
func New(gw Gateway, opts ...Option) *DB {
	db := &DB{
		gw:      gw,
		logger:  slog.Default(),
		schemas: make(map[string]*Schema),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Close closes the gateway.
func (db *DB) Close() error {
	return db.gw.Close()
}

// Register declares a table and creates it when absent.
//
// The declaration must have exactly one integer primary key and every
// foreign key must target a schema already registered on this DB.
// Registering the same declaration again returns the existing handle
// without touching the table; a different declaration under a registered
// name is a schema error.
func (db *DB) Register(ctx context.Context, name string, cols ...ColumnDecl) (*Schema, error) {
	s, err := newSchema(name, cols)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if existing, ok := db.schemas[name]; ok {
		if existing.equivalent(cols) {
			return existing, nil
		}
		return nil, schemaErr(name, "already registered with a different declaration")
	}

	for _, c := range s.columns {
		target := c.Spec.Target()
		if target == nil {
			continue
		}
		registered, ok := db.schemas[target.Name()]
		if !ok {
			return nil, schemaErr(name, "foreign key %q targets unregistered table %q", c.Name, target.Name())
		}
		if ts, isSchema := target.(*Schema); isSchema && ts != registered {
			return nil, schemaErr(name, "foreign key %q targets a %q schema from another DB", c.Name, target.Name())
		}
	}

	if err := db.gw.CreateTable(ctx, name, s.queryColumns()); err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	db.schemas[name] = s
	db.order = append(db.order, name)
	db.logger.Debug("schema registered", "table", name, "columns", len(s.columns))
	return s, nil
}

// Schema returns a registered schema by table name.
func (db *DB) Schema(name string) (*Schema, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, ok := db.schemas[name]
	return s, ok
}

// Schemas returns the registered schemas in registration order.
func (db *DB) Schemas() []*Schema {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*Schema, len(db.order))
	for i, name := range db.order {
		out[i] = db.schemas[name]
	}
	return out
}

func (db *DB) owns(op string, s *Schema) error {
	if s == nil {
		return valueErr(op, "", "nil schema")
	}
	registered, ok := db.Schema(s.name)
	if !ok || registered != s {
		return &Error{Code: CodeSchema, Op: op, Table: s.name, Message: "schema not registered on this DB"}
	}
	return nil
}

// Create inserts a row and returns it as a Persisted record.
//
// The primary key is assigned by the backend and must not be supplied.
// Omitted columns take their default. Every value is validated and
// converted by its column before the insert.
func (db *DB) Create(ctx context.Context, s *Schema, values Values) (*Record, error) {
	if err := db.owns("create", s); err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(values) {
		if name == s.pk {
			return nil, valueErr("create", s.name, "primary key %q is assigned by the backend and must not be supplied", name)
		}
		if _, ok := s.index[name]; !ok {
			return nil, valueErr("create", s.name, "unknown column %q", name)
		}
	}

	assignments := make([]query.Assignment, 0, len(s.columns)-1)
	for _, c := range s.columns {
		if c.Name == s.pk {
			continue
		}
		stored, err := c.Spec.Prepare(c.Name, values[c.Name])
		if err != nil {
			return nil, validationErr("create", s.name, err)
		}
		assignments = append(assignments, query.Assignment{Column: c.Name, Value: stored})
	}

	id, err := db.gw.Insert(ctx, s.name, s.pk, assignments)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.name, err)
	}

	row := make([]any, len(s.columns))
	for _, a := range assignments {
		row[s.index[a.Column]] = a.Value
	}
	row[s.index[s.pk]] = id
	return db.toRecord("create", s, row)
}

// Find returns the single row matching every where equality.
//
// An empty filter, an unknown column or more than one match is an
// invalid-argument error. No match returns (nil, false, nil).
func (db *DB) Find(ctx context.Context, s *Schema, where Values) (*Record, bool, error) {
	if err := db.owns("find", s); err != nil {
		return nil, false, err
	}
	filter, err := db.filter("find", s, where)
	if err != nil {
		return nil, false, err
	}

	rows, err := db.gw.Query(ctx, query.Select{Table: s.name, Columns: s.Columns(), Where: query.AllEqual(filter...)})
	if err != nil {
		return nil, false, fmt.Errorf("find %s: %w", s.name, err)
	}
	switch len(rows) {
	case 0:
		return nil, false, nil
	case 1:
		rec, err := db.toRecord("find", s, rows[0])
		if err != nil {
			return nil, false, err
		}
		return rec, true, nil
	default:
		return nil, false, valueErr("find", s.name, "%d rows match %v", len(rows), query.Names(filter))
	}
}

// All returns every row of the table ordered by primary key.
func (db *DB) All(ctx context.Context, s *Schema) ([]*Record, error) {
	if err := db.owns("all", s); err != nil {
		return nil, err
	}
	rows, err := db.gw.Query(ctx, query.Select{Table: s.name, Columns: s.Columns(), OrderBy: []string{s.pk}})
	if err != nil {
		return nil, fmt.Errorf("all %s: %w", s.name, err)
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rec, err := db.toRecord("all", s, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// DeleteWhere deletes every row matching the where equalities. An empty
// filter is an invalid-argument error.
func (db *DB) DeleteWhere(ctx context.Context, s *Schema, where Values) error {
	if err := db.owns("delete", s); err != nil {
		return err
	}
	filter, err := db.filter("delete", s, where)
	if err != nil {
		return err
	}
	if err := db.gw.Delete(ctx, s.name, filter); err != nil {
		return fmt.Errorf("delete %s: %w", s.name, err)
	}
	return nil
}

// filter converts where values to storage form in column order.
func (db *DB) filter(op string, s *Schema, where Values) ([]query.Assignment, error) {
	if len(where) == 0 {
		return nil, valueErr(op, s.name, "filter must not be empty")
	}
	for _, name := range sortedKeys(where) {
		if _, ok := s.index[name]; !ok {
			return nil, valueErr(op, s.name, "unknown column %q", name)
		}
	}

	out := make([]query.Assignment, 0, len(where))
	for _, c := range s.columns {
		v, ok := where[c.Name]
		if !ok {
			continue
		}
		// nil always compiles to IS NULL, whatever the column kind stores
		if v == nil {
			out = append(out, query.Assignment{Column: c.Name})
			continue
		}
		if err := c.Spec.Validate(v); err != nil {
			return nil, validationErr(op, s.name, withColumn(err, c.Name))
		}
		stored, err := c.Spec.ToStorage(v)
		if err != nil {
			return nil, validationErr(op, s.name, withColumn(err, c.Name))
		}
		out = append(out, query.Assignment{Column: c.Name, Value: stored})
	}
	return out, nil
}

// toRecord converts a raw row in schema column order.
func (db *DB) toRecord(op string, s *Schema, row []any) (*Record, error) {
	if len(row) != len(s.columns) {
		return nil, fmt.Errorf("%s %s: got %d values for %d columns", op, s.name, len(row), len(s.columns))
	}
	values := make(map[string]any, len(s.columns))
	for i, c := range s.columns {
		v, err := c.Spec.FromStorage(row[i])
		if err != nil {
			return nil, validationErr(op, s.name, withColumn(err, c.Name))
		}
		values[c.Name] = v
	}
	return &Record{db: db, schema: s, values: values, state: StatePersisted}, nil
}

func withColumn(err error, name string) error {
	if ve, ok := err.(*column.ValidationError); ok && ve.Column == "" {
		cp := *ve
		cp.Column = name
		return &cp
	}
	return err
}

func sortedKeys(m Values) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
