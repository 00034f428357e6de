package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/roach88/uniorm/internal/dialect"
	"github.com/roach88/uniorm/internal/store"
)

const migrationsTable = "audit_migrations"

// migrations bootstraps the audit database. Append new steps, never edit
// applied ones.
var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "0001_audit_log",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS audit_log (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					event_id TEXT NOT NULL,
					table_name TEXT NOT NULL,
					action TEXT NOT NULL,
					affected_keys TEXT NOT NULL,
					serialized_values TEXT NOT NULL,
					timestamp TEXT NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_audit_log_table ON audit_log(table_name)`,
			},
			Down: []string{`DROP TABLE audit_log`},
		},
	},
}

// Store is the durable audit sink, an embedded SQLite database.
type Store struct {
	db *sqlx.DB
}

// row is the audit_log row layout.
type row struct {
	ID        int64  `db:"id"`
	EventID   string `db:"event_id"`
	Table     string `db:"table_name"`
	Action    string `db:"action"`
	Keys      string `db:"affected_keys"`
	Values    string `db:"serialized_values"`
	Timestamp string `db:"timestamp"`
}

// Open creates or opens the audit database at path and applies pending
// migrations. Safe to call on an existing log.
func Open(path string) (*Store, error) {
	db, err := store.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	set := migrate.MigrationSet{TableName: migrationsTable}
	if _, err := set.Exec(db.DB, dialect.DriverSQLite, migrations, migrate.Up); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit log: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the audit database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append writes e and commits it.
func (s *Store) Append(ctx context.Context, e Entry) error {
	r := row{
		EventID:   e.EventID,
		Table:     e.Table,
		Action:    string(e.Action),
		Keys:      strings.Join(e.Keys, ","),
		Values:    e.Values,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO audit_log
		(event_id, table_name, action, affected_keys, serialized_values, timestamp)
		VALUES (:event_id, :table_name, :action, :affected_keys, :serialized_values, :timestamp)
	`, r)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Entries returns every entry in append order.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `SELECT * FROM audit_log ORDER BY id ASC`)
}

// EntriesFor returns the entries of one table in append order.
func (s *Store) EntriesFor(ctx context.Context, table string) ([]Entry, error) {
	return s.query(ctx, `SELECT * FROM audit_log WHERE table_name = ? ORDER BY id ASC`, table)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r row) entry() (Entry, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return Entry{}, fmt.Errorf("audit entry %d: bad timestamp %q: %w", r.ID, r.Timestamp, err)
	}
	var keys []string
	if r.Keys != "" {
		keys = strings.Split(r.Keys, ",")
	}
	return Entry{
		ID:        r.ID,
		EventID:   r.EventID,
		Table:     r.Table,
		Action:    Action(r.Action),
		Keys:      keys,
		Values:    r.Values,
		Timestamp: ts,
	}, nil
}
