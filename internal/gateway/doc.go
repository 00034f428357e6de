// Package gateway is the single point of contact with the backend.
//
// A Gateway owns one live connection and one audit recorder. It compiles
// statement IR through querysql, executes each statement in autocommit mode
// and, once a mutation has succeeded, records it in the audit log.
//
// Audit writes are best-effort. A failed audit append is logged at error
// level and counted by AuditFailures, but never turns a committed mutation
// into an error.
package gateway
