// Package domain defines the core business entities for sercha-ingest.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Corpus: A named document collection bound to one source folder
//   - IngestionJob: One logical sync, possibly spanning several ticks
//   - Document: A source file tracked within a corpus
//   - Chunk: An embedded text segment of a document
//   - SyncStats: Operator-facing counters for a sync
//
// Job and corpus state changes are expressed as tagged updates
// (JobUpdate, CorpusUpdate) and validated by Apply.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
