package audit

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stoppedClock time.Time

func (c stoppedClock) Now() time.Time { return time.Time(c) }

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRecorder_Record(t *testing.T) {
	sink := NewMemorySink()
	rec := NewRecorder(sink,
		WithClock(stoppedClock(t0)),
		WithIDGenerator(NewFixedGenerator("evt-1")),
	)

	err := rec.Record(context.Background(), "Book", ActionInsert,
		[]string{"title", "year", "price"},
		[]any{"Dune", int64(1965), 9.0},
	)
	require.NoError(t, err)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, int64(1), e.ID)
	assert.Equal(t, "evt-1", e.EventID)
	assert.Equal(t, "Book", e.Table)
	assert.Equal(t, ActionInsert, e.Action)
	assert.Equal(t, []string{"title", "year", "price"}, e.Keys)
	assert.Equal(t, `{"price":9.0,"title":"Dune","year":1965}`, e.Values)
	assert.Equal(t, t0, e.Timestamp)
}

func TestRecorder_MismatchedKeys(t *testing.T) {
	rec := NewRecorder(NewMemorySink())
	err := rec.Record(context.Background(), "Book", ActionDelete, []string{"id"}, nil)
	assert.Error(t, err)
}

func TestRecorder_SinkFailure(t *testing.T) {
	sink := NewMemorySink()
	boom := errors.New("disk full")
	sink.FailWith(boom)

	err := NewRecorder(sink).Record(context.Background(), "Book", ActionDelete, []string{"id"}, []any{int64(1)})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, sink.Entries())
}

func TestUUIDv7Generator(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Regexp(t, pattern, a)
	assert.NotEqual(t, a, b)
}

func TestFixedGenerator_Exhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestSerialize(t *testing.T) {
	got, err := Serialize([]string{"b", "a", "n"}, []any{"x", int64(1), nil})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"x","n":null}`, got)

	_, err = Serialize([]string{"c"}, []any{make(chan int)})
	assert.Error(t, err)
}
