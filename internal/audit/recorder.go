package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/uniorm/internal/value"
)

// Clock supplies entry timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator supplies event ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 event ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined event ids for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch a test that performs more
// mutations than it expected.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// Recorder builds entries and appends them to a Sink.
type Recorder struct {
	sink  Sink
	clock Clock
	ids   IDGenerator
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides the wall clock.
func WithClock(c Clock) RecorderOption {
	return func(r *Recorder) { r.clock = c }
}

// WithIDGenerator overrides the UUIDv7 event id generator.
func WithIDGenerator(g IDGenerator) RecorderOption {
	return func(r *Recorder) { r.ids = g }
}

// NewRecorder creates a Recorder writing to sink.
func NewRecorder(sink Sink, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sink:  sink,
		clock: SystemClock{},
		ids:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry. keys and values are parallel: values[i] is the
// storage value of column keys[i].
func (r *Recorder) Record(ctx context.Context, table string, action Action, keys []string, values []any) error {
	if len(keys) != len(values) {
		return fmt.Errorf("record %s %s: %d keys for %d values", action, table, len(keys), len(values))
	}
	serialized, err := Serialize(keys, values)
	if err != nil {
		return fmt.Errorf("record %s %s: %w", action, table, err)
	}

	e := Entry{
		EventID:   r.ids.Generate(),
		Table:     table,
		Action:    action,
		Keys:      append([]string(nil), keys...),
		Values:    serialized,
		Timestamp: r.clock.Now(),
	}
	if err := r.sink.Append(ctx, e); err != nil {
		return fmt.Errorf("record %s %s: %w", action, table, err)
	}
	return nil
}

// Serialize renders column values as a canonical JSON object.
func Serialize(keys []string, values []any) (string, error) {
	obj := make(value.Object, len(keys))
	for i, k := range keys {
		v, err := value.From(values[i])
		if err != nil {
			return "", fmt.Errorf("column %q: %w", k, err)
		}
		obj[k] = v
	}
	data, err := value.MarshalCanonical(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
