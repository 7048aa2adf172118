// Package sqlite provides a SQLite-based implementation of driven.Store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single database holds:
//
//   - corpora: corpus sync state
//   - ingestion_jobs: job lifecycle, progress and stats
//   - documents: one row per (corpus, source file)
//   - chunks: chunk text, float32 embeddings and display metadata
//   - profiles: brand profiles for context assembly
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Vector Search
//
// Embeddings are stored as little-endian float32 blobs and scored in process.
// Use the postgres adapter for corpora that need an index.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-ingest/data/corpus.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
