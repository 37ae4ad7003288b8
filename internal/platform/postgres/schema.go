package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/redact"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Schema applies the embedded migrations. Versioning is disabled, so every
// EnsureSchema runs every migration; they must all be idempotent.
// It implements store.SchemaInitializer.
type Schema struct {
	provider *goose.Provider
	logger   *slog.Logger
}

var _ store.SchemaInitializer = (*Schema)(nil)

// NewSchema prepares a goose provider over db. It does not touch the database.
func NewSchema(db *sql.DB, logger *slog.Logger) (*Schema, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	// A dropped tasks table must come back on the next reconnect, which a
	// recorded version would prevent.
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys,
		goose.WithDisableVersioning(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Schema{
		provider: provider,
		logger:   logger.With(slog.String("component", "schema")),
	}, nil
}

// EnsureSchema applies the embedded migrations.
func (s *Schema) EnsureSchema(ctx context.Context) error {
	results, err := s.provider.Up(ctx)
	if err != nil {
		s.logger.Debug("schema migration failed", slog.String("error", redact.Error(err)))
		return fmt.Errorf("failed to apply schema migrations: %w", err)
	}

	for _, r := range results {
		s.logger.Debug("applied schema migration",
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration))
	}

	return nil
}
