// Package postgres provides the PostgreSQL implementation of the task store
// defined in the internal/store package. It handles the details of opening the
// connection pool (pgx through database/sql), surfacing pool lifecycle events,
// applying the embedded schema migration, and mapping rows to domain entities.
package postgres
