// Package store opens the single live database connection.
//
// SQLite is the embedded, file-based backend and MySQL the networked one.
// Both come back as *sqlx.DB capped at one open connection; statements run
// in autocommit mode.
//
// # SQLite configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
