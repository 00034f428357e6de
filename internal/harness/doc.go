// Package harness runs YAML scenarios against a fresh record engine and
// checks the outcome of each step, the final table state and the audit
// trail.
//
// # Scenario Format
//
//	name: checkout
//	description: "A loan references a book and its author"
//	declarations:
//	  - library.yaml
//	steps:
//	  - op: create
//	    table: Author
//	    as: herbert
//	    values: { name: Herbert }
//	  - op: create
//	    table: Book
//	    as: dune
//	    values: { title: Dune, author: $herbert }
//	  - op: resolve
//	    ref: dune
//	    column: author
//	    expect:
//	      values: { name: Herbert }
//	  - op: find
//	    table: Author
//	    where: { name: Nobody }
//	    expect: { found: false }
//	assertions:
//	  - type: audit_count
//	    action: INSERT
//	    count: 2
//	  - type: final_state
//	    table: Book
//	    where: { title: Dune }
//	    expect: { author: 1 }
//
// Declaration paths are relative to the scenario file. A string value
// "$name" refers to the record bound by an earlier step's "as".
//
// # Operations
//
//   - create: insert values into table
//   - find: look up the single row of table matching where
//   - all: list every row of table
//   - set: assign values on the bound record ref
//   - save, delete: write back or remove the bound record ref
//   - delete_where: delete rows of table matching where
//   - resolve: follow foreign key column of the bound record ref
//
// An expect clause may name an error code (SCHEMA_ERROR, INVALID_ARGUMENT,
// NOT_FOUND, VALIDATION_ERROR), whether a row was found, a row count or a
// subset of the record's values. Without one the step must succeed.
//
// # Assertion Types
//
//   - audit_count: exactly count entries, optionally filtered by table and action
//   - audit_order: entry actions appear in the given order
//   - final_state: the single row matching where holds the expected values
//   - row_count: table holds exactly count rows
//
// # Deterministic Testing
//
// Every scenario runs on an in-memory SQLite database with a stepping
// clock and sequential event ids, so the audit trail is identical across
// runs and can be compared against golden files.
package harness
