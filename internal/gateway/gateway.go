package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/uniorm/internal/audit"
	"github.com/roach88/uniorm/internal/dialect"
	"github.com/roach88/uniorm/internal/query"
	"github.com/roach88/uniorm/internal/querysql"
)

// Gateway executes statements against one backend connection.
type Gateway struct {
	db       *sqlx.DB
	dialect  dialect.Dialect
	compiler *querysql.Compiler
	recorder *audit.Recorder
	closers  []io.Closer
	logger   *slog.Logger

	auditFailures atomic.Int64
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithAudit sends audit entries to sink. When sink is an io.Closer it is
// closed with the gateway.
func WithAudit(sink audit.Sink, opts ...audit.RecorderOption) Option {
	return func(g *Gateway) {
		g.recorder = audit.NewRecorder(sink, opts...)
		if c, ok := sink.(io.Closer); ok {
			g.closers = append(g.closers, c)
		}
	}
}

// New wraps an open connection. The dialect follows the connection's driver.
// Without WithAudit, entries go to an in-memory sink.
func New(db *sqlx.DB, opts ...Option) (*Gateway, error) {
	d, err := dialect.ForDriver(db.DriverName())
	if err != nil {
		return nil, err
	}
	g := &Gateway{
		db:       db,
		dialect:  d,
		compiler: querysql.New(d),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.recorder == nil {
		g.recorder = audit.NewRecorder(audit.NewMemorySink())
	}
	return g, nil
}

// Dialect returns the backend dialect.
func (g *Gateway) Dialect() dialect.Dialect { return g.dialect }

// Placeholder returns the backend's bind marker.
func (g *Gateway) Placeholder() string { return g.dialect.Placeholder() }

// AuditFailures returns how many audit appends have failed.
func (g *Gateway) AuditFailures() int64 { return g.auditFailures.Load() }

// TableExists reports whether the named table exists.
func (g *Gateway) TableExists(ctx context.Context, name string) (bool, error) {
	sql, params, err := g.compiler.Compile(query.TableExists{Table: name})
	if err != nil {
		return false, fmt.Errorf("table exists %s: %w", name, err)
	}
	rows, err := g.db.QueryContext(ctx, sql, params...)
	if err != nil {
		return false, fmt.Errorf("table exists %s: %w", name, err)
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("table exists %s: %w", name, err)
	}
	return found, nil
}

// CreateTable creates the table unless it already exists. An existing
// table is left untouched even when its columns differ.
func (g *Gateway) CreateTable(ctx context.Context, name string, cols []query.Column) error {
	exists, err := g.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		g.logger.Debug("table exists", "table", name)
		return nil
	}
	if _, err := g.exec(ctx, query.CreateTable{Table: name, Columns: cols}); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	g.logger.Debug("table created", "table", name, "columns", len(cols))
	return nil
}

// Insert adds one row and returns the identifier the backend assigned.
// The pk column is dropped from values so the backend always assigns it.
func (g *Gateway) Insert(ctx context.Context, table, pk string, values []query.Assignment) (int64, error) {
	filtered := make([]query.Assignment, 0, len(values))
	for _, a := range values {
		if a.Column != pk {
			filtered = append(filtered, a)
		}
	}

	res, err := g.exec(ctx, query.Insert{Table: table, Values: filtered})
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: last insert id: %w", table, err)
	}

	g.record(ctx, table, audit.ActionInsert, filtered)
	return id, nil
}

// Update sets columns on every row matching the equality filter. The audit
// entry lists the changed columns.
func (g *Gateway) Update(ctx context.Context, table string, set, where []query.Assignment) error {
	stmt := query.Update{Table: table, Set: set, Where: query.AllEqual(where...)}
	if _, err := g.exec(ctx, stmt); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	g.record(ctx, table, audit.ActionUpdate, set)
	return nil
}

// Delete removes every row matching the equality filter. The audit entry
// lists the filter columns.
func (g *Gateway) Delete(ctx context.Context, table string, where []query.Assignment) error {
	stmt := query.Delete{Table: table, Where: query.AllEqual(where...)}
	if _, err := g.exec(ctx, stmt); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	g.record(ctx, table, audit.ActionDelete, where)
	return nil
}

// Select returns raw rows of table. Empty columns selects every column in
// table order and an empty filter selects every row.
func (g *Gateway) Select(ctx context.Context, table string, columns []string, where []query.Assignment) ([][]any, error) {
	return g.Query(ctx, query.Select{Table: table, Columns: columns, Where: query.AllEqual(where...)})
}

// Query runs a Select statement. Values come back in storage form with
// driver byte slices converted to strings.
func (g *Gateway) Query(ctx context.Context, sel query.Select) ([][]any, error) {
	sql, params, err := g.compiler.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", sel.Table, err)
	}
	g.logger.Debug("query", "sql", sql, "params", len(params))

	rows, err := g.db.QueryxContext(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", sel.Table, err)
	}
	defer rows.Close()

	out := [][]any{}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("select %s: scan: %w", sel.Table, err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", sel.Table, err)
	}
	return out, nil
}

// Close closes the connection and any audit sink the gateway owns.
func (g *Gateway) Close() error {
	errs := []error{g.db.Close()}
	for _, c := range g.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (g *Gateway) exec(ctx context.Context, stmt query.Statement) (sqlResult, error) {
	sql, params, err := g.compiler.Compile(stmt)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("exec", "sql", sql, "params", len(params))
	return g.db.ExecContext(ctx, sql, params...)
}

// sqlResult is the part of database/sql.Result the gateway reads.
type sqlResult interface {
	LastInsertId() (int64, error)
}

func (g *Gateway) record(ctx context.Context, table string, action audit.Action, as []query.Assignment) {
	values := make([]any, len(as))
	for i, a := range as {
		values[i] = a.Value
	}
	if err := g.recorder.Record(ctx, table, action, query.Names(as), values); err != nil {
		g.auditFailures.Add(1)
		g.logger.Error("audit append failed", "table", table, "action", string(action), "error", err)
	}
}
