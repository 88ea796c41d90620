// Package sqlite provides the embedded SQLite implementation of driven.CorpusStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One *sql.DB handle is opened per process
// and shared by every caller.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Tables: tenants, documents, chunks. Deleting a document cascades to its chunks.
//
// # Data Location
//
// By default, the database is stored at ~/.onboard-rag/corpus.db
//
// # Thread Safety
//
// Writes take an exclusive lock and run in a single SQL transaction; reads take a
// shared lock. WAL mode lets readers proceed against the last committed state.
package sqlite
