// Package orm binds typed columns into table schemas and maps rows to
// records.
//
// A DB is the explicit context object: it wraps one gateway and keeps the
// registry of schemas declared against it. Callers register each table once
// and use the returned *Schema handle for every later operation:
//
//	author, _ := db.Register(ctx, "Author",
//	    orm.Col("id", column.Integer(column.PrimaryKey())),
//	    orm.Col("name", column.Text(column.NotNull())),
//	)
//	book, _ := db.Register(ctx, "Book",
//	    orm.Col("id", column.Integer(column.PrimaryKey())),
//	    orm.Col("title", column.Text()),
//	    orm.Col("author", column.ForeignKey(author)),
//	)
//	a, _ := db.Create(ctx, author, orm.Values{"name": "Herbert"})
//	b, _ := db.Create(ctx, book, orm.Values{"title": "Dune", "author": a})
//	got, _ := b.Resolve(ctx, "author") // one lookup, then cached
//
// # Record lifecycle
//
// Records come back Persisted from Create, Find and All. Delete clears the
// primary key and moves the record to Deleted; a deleted record cannot be
// saved or deleted again.
//
// # Foreign keys
//
// A foreign key attribute holds a column.Ref. Get never touches the
// database. Resolve looks the target up by primary key the first time and
// caches the row in the record, so later calls return the same snapshot.
//
// Records are not safe for concurrent use. The schema registry is.
package orm
