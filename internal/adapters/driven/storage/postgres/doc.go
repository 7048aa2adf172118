// Package postgres provides a PostgreSQL implementation of driven.Store.
//
// Connections go through the pgx database/sql driver. Chunk embeddings are
// stored in a pgvector column and ranked with the cosine distance operator
// (<=>); similarity is reported as 1 - distance.
//
// The database must have the vector extension available. Migrations are
// embedded from the migrations/ directory and applied on NewStore.
package postgres
