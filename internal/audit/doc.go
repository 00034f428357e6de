// Package audit records every committed mutation to an append-only log.
//
// The gateway hands each successful INSERT, UPDATE or DELETE to a Recorder,
// which stamps it with a wall-clock time and a time-sortable event id and
// appends it to a Sink. The durable sink is Store, a SQLite file kept apart
// from the application database whatever backend that uses.
//
// Logged values are the storage-form values of the statement, serialized as
// canonical JSON (sorted keys, NFC strings) so identical mutations always
// produce identical text.
package audit
