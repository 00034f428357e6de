// Package declare reads table declarations from CUE or YAML and registers
// them on an orm.DB in foreign key dependency order.
//
// CUE layout (a directory of .cue files, one package):
//
//	table: Author: columns: {
//	    id:   {type: "integer", primary_key: true}
//	    name: {type: "text", not_null: true}
//	}
//	table: Book: columns: {
//	    id:     {type: "integer", primary_key: true}
//	    author: {type: "foreign_key", references: "Author"}
//	}
//
// YAML layout (a single file, unknown fields rejected):
//
//	tables:
//	  - name: Author
//	    columns:
//	      - {name: id, type: integer, primary_key: true}
//	      - {name: name, type: text, not_null: true}
//
// Column types are text, integer, real, boolean, timestamp, json and
// foreign_key. A timestamp default of "now" is evaluated on every write.
// Field order is column order in both formats.
package declare
