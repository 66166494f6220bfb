// Package store defines the persistence interfaces for API keys and
// embedded document chunks, together with the errors implementations
// return. PostgreSQL implementations live in internal/platform/postgres.
package store
