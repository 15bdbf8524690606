// Package postgres provides PostgreSQL-backed implementations of the
// store interfaces, using database/sql with the pgx driver. Stores map
// database errors to the sentinel errors defined in internal/store so
// callers never depend on driver details.
package postgres
