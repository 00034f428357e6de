package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uniorm/internal/column"
	"github.com/roach88/uniorm/internal/dialect"
	"github.com/roach88/uniorm/internal/query"
)

func TestCompile_CreateTable(t *testing.T) {
	stmt := query.CreateTable{
		Table: "Book",
		Columns: []query.Column{
			{Name: "id", Spec: column.Integer(column.PrimaryKey())},
			{Name: "title", Spec: column.Text(column.NotNull())},
		},
	}

	sql, params, err := New(dialect.SQLite).Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "Book" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "title" TEXT NOT NULL)`, sql)
	assert.Empty(t, params)

	sql, _, err = New(dialect.MySQL).Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `Book` (`id` BIGINT PRIMARY KEY AUTO_INCREMENT, `title` TEXT NOT NULL) CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci", sql)
}

func TestCompile_TableExists(t *testing.T) {
	sql, params, err := New(dialect.SQLite).Compile(query.TableExists{Table: "Book"})
	require.NoError(t, err)
	assert.Contains(t, sql, "sqlite_master")
	assert.Equal(t, []any{"Book"}, params)
}

func TestCompile_Insert(t *testing.T) {
	stmt := query.Insert{
		Table: "Book",
		Values: []query.Assignment{
			{Column: "title", Value: "Dune"},
			{Column: "year", Value: int64(1965)},
		},
	}

	sql, params, err := New(dialect.SQLite).Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Book" ("title", "year") VALUES (?, ?)`, sql)
	assert.Equal(t, []any{"Dune", int64(1965)}, params)

	// values are never interpolated
	assert.NotContains(t, sql, "Dune")
}

func TestCompile_InsertDefaults(t *testing.T) {
	sql, params, err := New(dialect.SQLite).Compile(query.Insert{Table: "Tag"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Tag" DEFAULT VALUES`, sql)
	assert.Empty(t, params)

	sql, _, err = New(dialect.MySQL).Compile(query.Insert{Table: "Tag"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `Tag` () VALUES ()", sql)
}

func TestCompile_Update(t *testing.T) {
	stmt := query.Update{
		Table: "Book",
		Set:   []query.Assignment{{Column: "title", Value: "Dune Messiah"}},
		Where: query.AllEqual(query.Assignment{Column: "id", Value: int64(1)}),
	}

	sql, params, err := New(dialect.MySQL).Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `Book` SET `title` = ? WHERE `id` = ?", sql)
	assert.Equal(t, []any{"Dune Messiah", int64(1)}, params)
}

func TestCompile_Delete(t *testing.T) {
	stmt := query.Delete{
		Table: "Book",
		Where: query.AllEqual(
			query.Assignment{Column: "author", Value: int64(2)},
			query.Assignment{Column: "title", Value: "Dune"},
		),
	}

	sql, params, err := New(dialect.SQLite).Compile(stmt)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "Book" WHERE "author" = ? AND "title" = ?`, sql)
	assert.Equal(t, []any{int64(2), "Dune"}, params)
}

func TestCompile_EmptyFilterRejected(t *testing.T) {
	c := New(dialect.SQLite)

	_, _, err := c.Compile(query.Delete{Table: "Book"})
	assert.ErrorIs(t, err, query.ErrEmptyFilter)

	_, _, err = c.Compile(query.Update{
		Table: "Book",
		Set:   []query.Assignment{{Column: "title", Value: "x"}},
	})
	assert.ErrorIs(t, err, query.ErrEmptyFilter)
}

func TestCompile_Select(t *testing.T) {
	c := New(dialect.SQLite)

	sql, params, err := c.Compile(query.Select{Table: "Book"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "Book"`, sql)
	assert.Empty(t, params)

	sql, params, err = c.Compile(&query.Select{
		Table:   "Book",
		Columns: []string{"id", "title"},
		Where:   query.Equal{Column: "title", Value: "Dune"},
		OrderBy: []string{"id"},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "title" FROM "Book" WHERE "title" = ? ORDER BY "id" ASC`, sql)
	assert.Equal(t, []any{"Dune"}, params)
}

func TestCompile_NullEquality(t *testing.T) {
	sql, params, err := New(dialect.SQLite).Compile(query.Select{
		Table: "Book",
		Where: query.Equal{Column: "author", Value: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "Book" WHERE "author" IS NULL`, sql)
	assert.Empty(t, params)
}

func TestCompile_QuotesHostileIdentifiers(t *testing.T) {
	sql, _, err := New(dialect.SQLite).Compile(query.Select{
		Table:   `x"; DROP TABLE y; --`,
		Columns: []string{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "a" FROM "x""; DROP TABLE y; --"`, sql)
}

func TestCompile_PlaceholderCount(t *testing.T) {
	stmt := query.Update{
		Table: "t",
		Set: []query.Assignment{
			{Column: "a", Value: 1},
			{Column: "b", Value: 2},
		},
		Where: query.AllEqual(
			query.Assignment{Column: "c", Value: 3},
			query.Assignment{Column: "d", Value: 4},
		),
	}
	for _, d := range []dialect.Dialect{dialect.SQLite, dialect.MySQL} {
		sql, params, err := New(d).Compile(stmt)
		require.NoError(t, err)
		assert.Equal(t, len(params), countRunes(sql, '?'), d.Name())
	}
}

func countRunes(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}
	return n
}

func TestCompile_Nil(t *testing.T) {
	_, _, err := New(dialect.SQLite).Compile(nil)
	assert.Error(t, err)
}
