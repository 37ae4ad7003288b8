package store

import (
	"context"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
)

// TaskStore defines the persistence operations behind the task endpoints.
// Every method issues exactly one auto-committed statement.
type TaskStore interface {
	// Ping runs a trivial liveness query and returns the database server's
	// current timestamp.
	Ping(ctx context.Context) (time.Time, error)

	// List returns every task ordered by id ascending. The slice is empty,
	// never nil, when there are no tasks.
	List(ctx context.Context) ([]domain.Task, error)

	// Get returns the task with the given id.
	// Returns ErrTaskNotFound if no such task exists.
	Get(ctx context.Context, id string) (*domain.Task, error)

	// Create inserts the task and returns the row as stored.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// Update changes only the fields present in patch and returns the
	// updated row. Returns ErrTaskNotFound if no such task exists.
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)

	// Delete removes the task and returns the deleted row.
	// Returns ErrTaskNotFound if no such task exists.
	Delete(ctx context.Context, id string) (*domain.Task, error)
}

// SchemaInitializer creates the tables a store needs. Implementations must be
// idempotent: calling EnsureSchema against an initialized database is a no-op.
type SchemaInitializer interface {
	EnsureSchema(ctx context.Context) error
}
