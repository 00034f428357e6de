package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		db, err := OpenSQLite(path)
		require.NoError(t, err, "iteration %d", i)
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY)`)
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
}

func TestOpenSQLite_Pragmas(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, verifyPragma(db, "journal_mode", "wal"))
	assert.NoError(t, verifyPragma(db, "synchronous", "1"))
	assert.NoError(t, verifyPragma(db, "busy_timeout", "5000"))
	assert.NoError(t, verifyPragma(db, "foreign_keys", "1"))
}

func TestOpenSQLite_SingleConnection(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	assert.Equal(t, "sqlite3", db.DriverName())
}

func TestOpenSQLite_BadPath(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

func TestMySQLConfig_DSN(t *testing.T) {
	cfg := MySQLConfig{
		Host:     "db.internal",
		User:     "app",
		Password: "s3cret",
		Database: "shop",
	}
	dsn := cfg.DSN()

	assert.True(t, strings.HasPrefix(dsn, "app:s3cret@tcp(db.internal:3306)/shop"), dsn)
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.NotContains(t, dsn, "parseTime=true")
}

func TestMySQLConfig_Defaults(t *testing.T) {
	dsn := MySQLConfig{User: "root", Charset: "latin1", Port: 3307}.DSN()
	assert.Contains(t, dsn, "tcp(localhost:3307)")
	assert.Contains(t, dsn, "charset=latin1")
}
