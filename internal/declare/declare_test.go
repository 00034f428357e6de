package declare

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uniorm/internal/column"
	"github.com/roach88/uniorm/internal/gateway"
	"github.com/roach88/uniorm/internal/orm"
	"github.com/roach88/uniorm/internal/store"
)

func newDB(t *testing.T) *orm.DB {
	t.Helper()
	conn, err := store.OpenSQLite(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	gw, err := gateway.New(conn)
	require.NoError(t, err)
	db := orm.New(gw)
	t.Cleanup(func() { db.Close() })
	return db
}

func names(tables []Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

func TestLoadCUE(t *testing.T) {
	tables, err := Load(filepath.Join("testdata", "library"))
	require.NoError(t, err)
	require.Equal(t, []string{"Book", "Author"}, names(tables))

	book := tables[0]
	require.Len(t, book.Columns, 4)
	assert.Equal(t, "id", book.Columns[0].Name)
	assert.True(t, book.Columns[0].PrimaryKey)
	assert.True(t, book.Columns[1].NotNull)
	assert.Equal(t, "Author", book.Columns[2].References)
	assert.Equal(t, "now", book.Columns[3].Default)
	assert.Equal(t, []string{"Author"}, book.References())

	author := tables[1]
	assert.True(t, author.Columns[1].Unique)
	assert.Equal(t, 2.5, author.Columns[2].Default)
	assert.Equal(t, true, author.Columns[3].Default)
}

func TestParseCUESource_Errors(t *testing.T) {
	_, err := ParseCUESource("empty.cue", []byte(`other: 1`))
	assert.ErrorContains(t, err, "no table declarations")

	_, err = ParseCUESource("notype.cue", []byte(`table: T: columns: id: {primary_key: true}`))
	assert.ErrorContains(t, err, "type is required")

	_, err = ParseCUESource("badflag.cue", []byte(`table: T: columns: id: {type: "integer", primary_key: "yes"}`))
	var declErr *Error
	assert.ErrorAs(t, err, &declErr)

	_, err = ParseCUESource("syntax.cue", []byte(`table: {`))
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	tables, err := Load(filepath.Join("testdata", "library.yaml"))
	require.NoError(t, err)
	require.Equal(t, []string{"Loan", "Book"}, names(tables))
	assert.Equal(t, 14, tables[0].Columns[2].Default)
	assert.Equal(t, "json", tables[0].Columns[3].Type)
}

func TestLoadYAML_RejectsUnknownFields(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "typo.yaml"))
	assert.ErrorContains(t, err, "typ")
}

func TestParseYAML_Validation(t *testing.T) {
	_, err := ParseYAML([]byte("tables: []\n"))
	assert.ErrorContains(t, err, "no table declarations")

	_, err = ParseYAML([]byte("tables:\n  - columns: []\n"))
	assert.ErrorContains(t, err, "name is required")
}

func TestOrder(t *testing.T) {
	tables := []Table{
		{Name: "Loan", Columns: []Column{{Name: "book", Type: "foreign_key", References: "Book"}, {Name: "member", Type: "foreign_key", References: "Member"}}},
		{Name: "Book", Columns: []Column{{Name: "author", Type: "foreign_key", References: "Author"}}},
		{Name: "Member"},
		{Name: "Author"},
	}

	ordered, err := Order(tables, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Member", "Author", "Book", "Loan"}, names(ordered))
}

func TestOrder_Errors(t *testing.T) {
	cycle, err := Load(filepath.Join("testdata", "cycle.yaml"))
	require.NoError(t, err)
	_, err = Order(cycle, nil)
	assert.ErrorContains(t, err, "reference cycle Egg -> Chicken -> Egg")

	self := []Table{{Name: "Node", Columns: []Column{{Name: "parent", Type: "foreign_key", References: "Node"}}}}
	_, err = Order(self, nil)
	assert.ErrorContains(t, err, "reference cycle Node -> Node")

	unknown := []Table{{Name: "Book", Columns: []Column{{Name: "author", Type: "foreign_key", References: "Author"}}}}
	_, err = Order(unknown, nil)
	assert.ErrorContains(t, err, `unknown table "Author"`)

	ordered, err := Order(unknown, func(name string) bool { return name == "Author" })
	require.NoError(t, err)
	assert.Len(t, ordered, 1)

	_, err = Order([]Table{{Name: "A"}, {Name: "A"}}, nil)
	assert.ErrorContains(t, err, "declared more than once")
}

func TestColumnSpec(t *testing.T) {
	tests := []struct {
		col  Column
		kind column.Kind
	}{
		{Column{Name: "a", Type: "text"}, column.KindText},
		{Column{Name: "a", Type: "integer"}, column.KindInteger},
		{Column{Name: "a", Type: "real"}, column.KindReal},
		{Column{Name: "a", Type: "boolean"}, column.KindBoolean},
		{Column{Name: "a", Type: "timestamp"}, column.KindTimestamp},
		{Column{Name: "a", Type: "json"}, column.KindJSON},
	}
	for _, tc := range tests {
		spec, err := tc.col.Spec("T", nil)
		require.NoError(t, err)
		assert.Equal(t, tc.kind, spec.Kind())
	}

	_, err := Column{Name: "a", Type: "decimal"}.Spec("T", nil)
	assert.ErrorContains(t, err, `T.a: unknown type "decimal"`)

	_, err = Column{Name: "a", Type: "foreign_key"}.Spec("T", nil)
	assert.ErrorContains(t, err, "needs references")

	_, err = Column{Name: "a", Type: "text", References: "X"}.Spec("T", nil)
	assert.ErrorContains(t, err, "only valid on foreign_key")

	spec, err := Column{Name: "n", Type: "integer", Default: 14}.Spec("T", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(14), spec.DefaultValue())

	spec, err = Column{Name: "at", Type: "timestamp", Default: "now"}.Spec("T", nil)
	require.NoError(t, err)
	now, ok := spec.DefaultValue().(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), now, time.Minute)
}

func TestApply(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	schemas, err := ApplyPath(ctx, db, filepath.Join("testdata", "library"))
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, "Author", schemas[0].Name())
	assert.Equal(t, "Book", schemas[1].Name())

	author, err := db.Create(ctx, schemas[0], orm.Values{"name": "Herbert"})
	require.NoError(t, err)
	rating, _ := author.Get("rating")
	assert.Equal(t, 2.5, rating)
	active, _ := author.Get("active")
	assert.Equal(t, true, active)

	book, err := db.Create(ctx, schemas[1], orm.Values{"title": "Dune", "author": author})
	require.NoError(t, err)
	published, _ := book.Get("published")
	assert.IsType(t, time.Time{}, published)

	got, err := book.Resolve(ctx, "author")
	require.NoError(t, err)
	assert.True(t, author.Equal(got))

	// applying again is a no-op
	again, err := ApplyPath(ctx, db, filepath.Join("testdata", "library"))
	require.NoError(t, err)
	assert.Same(t, schemas[0], again[0])
}

func TestApply_ReferencesRegisteredSchema(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	_, err := ApplyPath(ctx, db, filepath.Join("testdata", "library"))
	require.NoError(t, err)

	tables, err := Load(filepath.Join("testdata", "library.yaml"))
	require.NoError(t, err)
	// Book already exists with a different shape, so drop it from the file.
	schemas, err := Apply(ctx, db, tables[:1])
	require.NoError(t, err)
	require.Len(t, schemas, 1)

	spec, ok := schemas[0].Column("book")
	require.True(t, ok)
	assert.Equal(t, "Book", spec.Target().Name())
}

func TestApply_Errors(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	_, err := ApplyPath(ctx, db, filepath.Join("testdata", "cycle.yaml"))
	assert.ErrorContains(t, err, "reference cycle")
	assert.Empty(t, db.Schemas())

	_, err = ApplyPath(ctx, db, filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	bad := []Table{{Name: "T", Columns: []Column{{Name: "a", Type: "text"}}}}
	_, err = Apply(ctx, db, bad)
	assert.True(t, orm.IsSchemaError(err), "%v", err)
}
