// Package value provides the sealed JSON value union stored in JSON columns
// and used to serialize audit snapshots.
//
// This package imports nothing internal. Every other package that needs to
// carry structured JSON data goes through Value, so that a JSON column
// round-trips losslessly:
//
//	Decode(Marshal(v)) == v
//
// MarshalCanonical additionally NFC-normalizes strings. It is used for audit
// snapshots, where byte-stable output matters more than preserving the exact
// code points a caller supplied.
//
// Key design constraints:
//   - Integers and floats are distinct kinds. Int never decays to Float and a
//     Float is always encoded with a fraction or exponent.
//   - Object keys are emitted in RFC 8785 order (UTF-16 code units).
//   - MarshalCanonical NFC-normalizes strings; Marshal leaves them untouched.
//   - NaN and infinities are not JSON and are rejected.
package value
