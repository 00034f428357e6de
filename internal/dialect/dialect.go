// Package dialect describes how each supported backend spells SQL.
//
// The placeholder token is the only difference visible above the gateway.
// Identifier quoting, auto-increment keywords, storage type names and the
// table existence probe stay inside this package and querysql.
package dialect

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// StorageType is the backend-neutral storage class of a column.
type StorageType int

const (
	Text StorageType = iota
	Integer
	Real
)

// String returns the storage class name used in error messages.
func (s StorageType) String() string {
	switch s {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Real:
		return "real"
	default:
		return fmt.Sprintf("storage(%d)", int(s))
	}
}

// Driver names registered with database/sql.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Dialect is the SQL spelling of one backend.
type Dialect struct {
	name          string
	driver        string
	bindType      int
	quote         byte
	autoIncrement string
	types         map[StorageType]string
	existsQuery   string
	tableOptions  string
}

// SQLite is the embedded, file-based backend.
var SQLite = Dialect{
	name:          "sqlite",
	driver:        DriverSQLite,
	bindType:      sqlx.BindType(DriverSQLite),
	quote:         '"',
	autoIncrement: "AUTOINCREMENT",
	types: map[StorageType]string{
		Text:    "TEXT",
		Integer: "INTEGER",
		Real:    "REAL",
	},
	existsQuery: "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
}

// MySQL is the networked backend.
var MySQL = Dialect{
	name:          "mysql",
	driver:        DriverMySQL,
	bindType:      sqlx.BindType(DriverMySQL),
	quote:         '`',
	autoIncrement: "AUTO_INCREMENT",
	types: map[StorageType]string{
		Text:    "TEXT",
		Integer: "BIGINT",
		Real:    "DOUBLE",
	},
	existsQuery:  "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
	tableOptions: "CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci",
}

// ForDriver returns the dialect for a database/sql driver name.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite, "sqlite":
		return SQLite, nil
	case DriverMySQL:
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Name returns the short backend name ("sqlite" or "mysql").
func (d Dialect) Name() string { return d.name }

// Driver returns the database/sql driver name.
func (d Dialect) Driver() string { return d.driver }

// Placeholder returns the bind marker for the first parameter of a
// statement: "?" for SQLite and MySQL.
func (d Dialect) Placeholder() string {
	return d.Rebind("?")
}

// Rebind rewrites a query written with ? markers into this dialect's
// bind syntax.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.bindType, query)
}

// QuoteIdent quotes a table or column name, doubling embedded quote characters.
func (d Dialect) QuoteIdent(name string) string {
	q := string(d.quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// AutoIncrement returns the keyword that follows PRIMARY KEY for
// engine-assigned identifiers.
func (d Dialect) AutoIncrement() string { return d.autoIncrement }

// TypeName returns the column type for a storage class. MySQL cannot index
// or default an unbounded TEXT column, so bounded text is VARCHAR there.
func (d Dialect) TypeName(s StorageType, bounded bool) string {
	if d.driver == DriverMySQL && s == Text && bounded {
		return "VARCHAR(255)"
	}
	return d.types[s]
}

// TableExistsQuery returns the probe that yields one row when the named
// table exists. It takes the table name as its only parameter.
func (d Dialect) TableExistsQuery() string {
	return d.Rebind(d.existsQuery)
}

// TableOptions returns the suffix appended to CREATE TABLE, if any.
func (d Dialect) TableOptions() string { return d.tableOptions }
