// Package postgres provides PostgreSQL implementations of the store
// interfaces: API keys, and document chunks held in a pgvector column.
// Schema migrations are embedded and applied with goose.
package postgres
