package column

import "fmt"

// Ref is the application value of a foreign key column.
//
// A Ref is either unresolved (only ID is known) or resolved (Row holds the
// target row). Resolution is performed by the record layer, never by Ref.
type Ref struct {
	ID  int64
	Row Row
}

// Unresolved returns a Ref holding only the target identifier.
func Unresolved(id int64) Ref {
	return Ref{ID: id}
}

// Resolved returns a Ref holding the target row.
func Resolved(row Row) Ref {
	id, _ := row.ID()
	return Ref{ID: id, Row: row}
}

// IsResolved reports whether the target row has been materialized.
func (r Ref) IsResolved() bool {
	return r.Row != nil
}

// String renders the target identifier, marked when resolved.
func (r Ref) String() string {
	if r.Row != nil {
		return fmt.Sprintf("%s#%d", r.Row.TableName(), r.ID)
	}
	return fmt.Sprintf("#%d", r.ID)
}
