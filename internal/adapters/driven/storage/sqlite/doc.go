// Package sqlite provides a SQLite-backed implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two ports through a single
// database connection:
//
//   - DocumentIndex: chunk storage with an FTS5 keyword index
//   - TranscriptStore: conversation turn persistence
//
// # Schema
//
// NewStore applies the numbered scripts in migrations/ that are newer than the
// version recorded in schema_migrations, each in its own transaction.
//
// # Data Location
//
// By default, the database is stored at ~/.diligence/data/diligence.db. Rows are
// scoped by session and removed when the session closes.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
