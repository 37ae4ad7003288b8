package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/todo-api/internal/config"
)

// ConnHooks receives connection pool lifecycle events.
type ConnHooks struct {
	// OnConnect is called after every new physical connection is established.
	OnConnect func()

	// OnError is called when establishing a connection fails or a statement
	// fails because its connection broke (see IsConnectionError).
	OnError func(err error)
}

// Open creates the connection pool. It does not connect: the first statement
// does, so the process can start while the database is down.
func Open(cfg config.DatabaseConfig, hooks ConnHooks) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	connConfig.Tracer = &connTracer{onError: hooks.OnError}

	var opts []stdlib.OptionOpenDB
	if hooks.OnConnect != nil {
		opts = append(opts, stdlib.OptionAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
			hooks.OnConnect()
			return nil
		}))
	}

	db := stdlib.OpenDB(*connConfig, opts...)

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// connTracer turns pgx trace callbacks into ConnHooks.OnError events.
// It implements pgx.QueryTracer and pgx.ConnectTracer.
type connTracer struct {
	onError func(err error)
}

var (
	_ pgx.QueryTracer   = (*connTracer)(nil)
	_ pgx.ConnectTracer = (*connTracer)(nil)
)

func (t *connTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return ctx
}

func (t *connTracer) TraceQueryEnd(_ context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	if IsConnectionError(data.Err) {
		t.emit(data.Err)
	}
}

func (t *connTracer) TraceConnectStart(ctx context.Context, _ pgx.TraceConnectStartData) context.Context {
	return ctx
}

func (t *connTracer) TraceConnectEnd(_ context.Context, data pgx.TraceConnectEndData) {
	if data.Err != nil {
		t.emit(data.Err)
	}
}

func (t *connTracer) emit(err error) {
	if t.onError != nil {
		t.onError(err)
	}
}
