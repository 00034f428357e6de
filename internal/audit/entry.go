package audit

import (
	"context"
	"sync"
	"time"
)

// Action is the kind of mutation an entry records.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Entry is one audit record.
//
// Keys are the affected columns: inserted columns for INSERT, changed
// columns for UPDATE and filter columns for DELETE. Values is the canonical
// JSON object of those columns.
type Entry struct {
	ID        int64
	EventID   string
	Table     string
	Action    Action
	Keys      []string
	Values    string
	Timestamp time.Time
}

// Sink receives audit entries.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// MemorySink keeps entries in memory. Safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append stores e, assigning the next sequential ID.
func (m *MemorySink) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	e.ID = int64(len(m.entries) + 1)
	e.Keys = append([]string(nil), e.Keys...)
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of the stored entries in append order.
func (m *MemorySink) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// FailWith makes every later Append return err. A nil err clears it.
func (m *MemorySink) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
