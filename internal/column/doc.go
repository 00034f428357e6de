// Package column defines typed column contracts: storage type, validation,
// lossless conversion between application and storage values, defaults and
// constraint declaration.
//
// Application values per kind:
//
//	Text        string
//	Integer     int64
//	Real        float64
//	Boolean     bool
//	Timestamp   time.Time
//	JSON        value.Value
//	ForeignKey  Ref
//
// Storage values are always nil, int64, float64 or string. For every value v
// accepted by Validate, FromStorage(ToStorage(v)) equals v (time.Time.Equal
// for timestamps).
package column
