// Package query is the statement IR shared by the gateway and the SQL
// compiler.
//
// Statement and Predicate are sealed interfaces using the marker method
// pattern, so compilers can switch exhaustively over every node:
//
//	switch s := stmt.(type) {
//	case CreateTable:
//	case TableExists:
//	case Insert:
//	case Update:
//	case Delete:
//	case Select:
//	}
//
// Statements carry identifiers and values separately. Identifiers are quoted
// by the compiler and values always become bound parameters; nothing in this
// package ever formats a value into SQL text.
//
// Assignments and predicates are ordered slices rather than maps. Column
// order decides parameter order, and callers rely on it staying stable.
//
// Filters are conjunctions of column equalities. Richer predicates are not
// supported.
package query
