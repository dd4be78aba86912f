// Package models defines the core domain models for Tripledger.
//
// # Models
//
//   - Project: Password-protected container for one trip's financial and
//     activity records
//   - Transaction: Income or expense entry belonging to exactly one project
//   - DailyReport: Activity log entry belonging to exactly one project
//
// Every record is scoped under an owner identity (the anonymous per-session
// user ID). Cross-entity references are ID strings, never pointers: a
// Transaction or DailyReport points at its Project via ProjectID, and the
// backing store enforces no foreign key, so referential consistency (cascade
// on delete, orphan tolerance on read) is the application's job.
//
// # Design Principles
//
// 1. **Strict shapes**: the store is schemaless; records that do not parse
// into these structs are rejected at the repository boundary, not propagated
// 2. **Numeric amounts**: amounts are float64 end to end, never formatted
// strings
// 3. **String dates**: dates and timestamps are RFC 3339 strings, which sort
// lexicographically and survive the store's flat field maps unchanged
package models
