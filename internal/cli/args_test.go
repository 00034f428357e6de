package cli

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
	"github.com/roach88/uniorm/internal/value"
)

func TestParseValue(t *testing.T) {
	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		kind column.Kind
		raw  string
		want any
	}{
		{column.KindText, "hello", "hello"},
		{column.KindText, "", ""},
		{column.KindInteger, "-7", int64(-7)},
		{column.KindForeignKey, "3", int64(3)},
		{column.KindReal, "2.5", 2.5},
		{column.KindBoolean, "true", true},
		{column.KindTimestamp, "2025-01-01T12:00:00Z", ts},
		{column.KindJSON, `{"a":[1]}`, value.Object{"a": value.Array{value.Int(1)}}},
		{column.KindInteger, "null", nil},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind)+"/"+tc.raw, func(t *testing.T) {
			got, err := parseValue(tc.kind, tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, kind := range []column.Kind{column.KindInteger, column.KindReal, column.KindBoolean, column.KindTimestamp, column.KindJSON} {
		_, err := parseValue(kind, "{nope")
		assert.Error(t, err, kind)
	}
}

func TestParseJoin(t *testing.T) {
	source, target, cols, err := parseJoin("author:Author")
	require.NoError(t, err)
	assert.Equal(t, "author", source)
	assert.Equal(t, "Author", target)
	assert.Nil(t, cols)

	_, _, cols, err = parseJoin("author:Author:name,id")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "id"}, cols)

	for _, bad := range []string{"author", ":Author", "author:", "a:b:c:d"} {
		_, _, _, err := parseJoin(bad)
		assert.Error(t, err, bad)
	}
}

func TestRecordRendering(t *testing.T) {
	conn, err := store.OpenSQLite(filepath.Join(t.TempDir(), "render.db"))
	require.NoError(t, err)
	gw, err := gateway.New(conn)
	require.NoError(t, err)
	db := orm.New(gw)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	s, err := db.Register(ctx, "Event",
		orm.Col("id", column.Integer(column.PrimaryKey())),
		orm.Col("at", column.Timestamp()),
		orm.Col("meta", column.JSON()),
		orm.Col("note", column.Text()),
	)
	require.NoError(t, err)

	values, err := parseAssignments(s, []string{"at=2025-01-01T12:00:00Z", `meta={"k":"v"}`, "note=null"})
	require.NoError(t, err)
	rec, err := db.Create(ctx, s, values)
	require.NoError(t, err)

	assert.Equal(t, `id=1 at=2025-01-01T12:00:00Z meta={"k":"v"} note=null`, recordLine(rec))
	assert.Equal(t, map[string]any{
		"id":   int64(1),
		"at":   "2025-01-01T12:00:00Z",
		"meta": map[string]any{"k": "v"},
		"note": nil,
	}, recordData(rec))
}
