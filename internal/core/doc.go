// Package core is the row-store engine.
//
// It turns an ordinary sheet into a schema-aware record store: row one holds
// the column names and every later row is a record. The engine is independent
// of any transport and is shared by the HTTP server and the sheetctl CLI.
//
// # Operations
//
// The read path ([Service.Read]) loads the data range, drops soft-deleted
// rows and applies an optional field projection. The write path
// ([Service.Write]) is a three-way operation chosen by [Op]:
//
//   - [OpCreate] appends one record or a batch after the true last row.
//   - [OpUpdate] patches a row located by id.
//   - [OpDelete] soft-deletes a row by setting is_enabled to false.
//
// Tables are created with [Service.CreateTable], which fixes the column
// layout and records column types, and described with [Service.DescribeTable].
//
// # Reserved Columns
//
// Four columns carry engine semantics: id (unique, generated when missing),
// created_at and updated_at (stamped by the engine), and is_enabled (the
// soft-delete flag, never returned to callers).
//
// # Error Handling
//
// Every failure the caller can act on is an [Error] whose Kind is one of the
// sentinel errors in errors.go, so callers can use errors.Is. The message is
// the text returned in the error envelope. [MapError] maps any error to a
// support code for logs.
//
// # Concurrency
//
// The engine performs no row-level locking. Writes pass through a
// [WriteLimiter], which by default admits one writer at a time and so
// serializes read-modify-write sequences within a process. Writers in other
// processes can still race; the last write wins.
package core
