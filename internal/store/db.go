package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the subset of *sql.DB used by the stores. *sql.Tx and
// *sql.Conn satisfy it too, which lets integration tests run each case
// inside a rolled-back transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
