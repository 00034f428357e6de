// Package view flattens records of one schema, joined with the rows their
// foreign keys reference, into plain column maps.
//
// A view is read-only and built entirely on the record engine's public
// surface: DB.All lists the base rows, Record.Get reads attributes and
// Record.Resolve follows foreign keys. Joins run in memory, one base row at
// a time, so a view costs one lookup per distinct foreign key per row.
//
// Key naming:
//
// Base columns keep their names. Joined target columns are injected under
// their plain name unless that name is already taken in the row, in which
// case they are qualified as "<Target>.<column>". Foreign key columns of
// the base are flattened to the referenced identifier.
//
// Example:
//
//	rows, err := view.New(books).
//	    Select("title", "author").
//	    Join("author", authors, "name").
//	    Rows(ctx, db)
//	// rows[0] == view.Row{"title": "Dune", "author": int64(1), "name": "Herbert"}
package view
