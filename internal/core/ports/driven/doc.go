// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - FileSource: Lists folders and fetches file bytes (Drive, S3, filesystem)
//   - NormaliserRegistry: Selects a Normaliser and cleans extracted text
//   - ChunkerFactory: Creates a Chunker per sync tick
//   - EmbeddingService: Generates vector embeddings
//   - Store: Corpus, job, document, chunk and profile persistence plus
//     vector search (SQLite, Postgres+pgvector, memory)
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
