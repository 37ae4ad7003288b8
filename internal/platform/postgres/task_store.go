package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/redact"
	"github.com/phrazzld/todo-api/internal/store"
)

const taskColumns = "id, title, state"

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// log prefers the request-scoped logger so store lines carry the trace ID.
func (s *PostgresTaskStore) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// Ping implements store.TaskStore.Ping
func (s *PostgresTaskStore) Ping(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := s.db.QueryRowContext(ctx, "SELECT NOW()").Scan(&now); err != nil {
		s.log(ctx).Debug("liveness query failed", slog.String("error", redact.Error(err)))
		return time.Time{}, fmt.Errorf("liveness query failed: %w", err)
	}
	return now, nil
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.log(ctx).Error("failed to query tasks", slog.String("error", redact.Error(err)))
		return nil, store.NewStoreError("task", "list", "failed to query tasks", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.log(ctx).Error("failed to scan task row", slog.String("error", redact.Error(err)))
			return nil, store.NewStoreError("task", "list", "failed to scan task row", err)
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		s.log(ctx).Error("error iterating task rows", slog.String("error", redact.Error(err)))
		return nil, store.NewStoreError("task", "list", "error iterating task rows", MapError(err))
	}

	return tasks, nil
}

// Get implements store.TaskStore.Get
func (s *PostgresTaskStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, s.rowError(ctx, "get", id, err)
	}
	return task, nil
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	query := `INSERT INTO tasks (id, title, state) VALUES ($1, $2, $3) RETURNING ` + taskColumns

	created, err := scanTask(s.db.QueryRowContext(ctx, query, task.ID, task.Title, task.State))
	if err != nil {
		s.log(ctx).Error("failed to insert task",
			slog.String("task_id", task.ID),
			slog.String("error", redact.Error(err)))
		return nil, store.NewStoreError("task", "create", "failed to insert task", MapError(err))
	}

	s.log(ctx).Debug("task created", slog.String("task_id", created.ID))
	return created, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id string,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	query, args := buildUpdateQuery(id, patch)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, s.rowError(ctx, "update", id, err)
	}

	s.log(ctx).Debug("task updated", slog.String("task_id", id))
	return task, nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id string) (*domain.Task, error) {
	query := `DELETE FROM tasks WHERE id = $1 RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, s.rowError(ctx, "delete", id, err)
	}

	s.log(ctx).Debug("task deleted", slog.String("task_id", id))
	return task, nil
}

// rowError turns a single-row failure into ErrTaskNotFound or a wrapped,
// mapped database error.
func (s *PostgresTaskStore) rowError(ctx context.Context, op, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		s.log(ctx).Debug("task not found",
			slog.String("operation", op),
			slog.String("task_id", id))
		return store.ErrTaskNotFound
	}

	s.log(ctx).Error("task query failed",
		slog.String("operation", op),
		slog.String("task_id", id),
		slog.String("error", redact.Error(err)))
	return store.NewStoreError("task", op, "query failed", MapError(err))
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one row of taskColumns. A NULL state reads as false.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task  domain.Task
		state sql.NullBool
	)
	if err := row.Scan(&task.ID, &task.Title, &state); err != nil {
		return nil, err
	}
	task.State = state.Valid && state.Bool
	return &task, nil
}

// buildUpdateQuery renders an UPDATE that sets only the columns present in
// patch, in title-then-state order. The id is always the last parameter.
// The patch must not be empty.
func buildUpdateQuery(id string, patch domain.TaskPatch) (string, []any) {
	var (
		sets []string
		args []any
	)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.State != nil {
		add("state", *patch.State)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "),
		len(args),
		taskColumns,
	)

	return query, args
}
