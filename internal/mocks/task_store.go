package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/store"
)

// MockTaskStore implements store.TaskStore over an in-memory map.
// Set a Fn field to replace the default behavior of that method.
type MockTaskStore struct {
	PingFn   func(ctx context.Context) (time.Time, error)
	ListFn   func(ctx context.Context) ([]domain.Task, error)
	GetFn    func(ctx context.Context, id string) (*domain.Task, error)
	CreateFn func(ctx context.Context, task *domain.Task) (*domain.Task, error)
	UpdateFn func(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteFn func(ctx context.Context, id string) (*domain.Task, error)

	// Now is returned by the default Ping.
	Now time.Time

	mu    sync.Mutex
	tasks map[string]domain.Task
	calls map[string]int
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore returns a store seeded with tasks.
func NewMockTaskStore(tasks ...domain.Task) *MockTaskStore {
	m := &MockTaskStore{
		Now:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		tasks: make(map[string]domain.Task),
		calls: make(map[string]int),
	}
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	return m
}

// Calls returns how many times method was invoked.
func (m *MockTaskStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (m *MockTaskStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Snapshot returns the stored tasks ordered by id.
func (m *MockTaskStore) Snapshot() []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

func (m *MockTaskStore) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func (m *MockTaskStore) sortedLocked() []domain.Task {
	tasks := make([]domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// Ping implements store.TaskStore.Ping
func (m *MockTaskStore) Ping(ctx context.Context) (time.Time, error) {
	m.record("Ping")
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return m.Now, nil
}

// List implements store.TaskStore.List
func (m *MockTaskStore) List(ctx context.Context) ([]domain.Task, error) {
	m.record("List")
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked(), nil
}

// Get implements store.TaskStore.Get
func (m *MockTaskStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	m.record("Get")
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return &t, nil
}

// Create implements store.TaskStore.Create
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	m.record("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[task.ID]; exists {
		return nil, store.ErrDuplicate
	}
	if m.tasks == nil {
		m.tasks = make(map[string]domain.Task)
	}
	m.tasks[task.ID] = *task
	created := *task
	return &created, nil
}

// Update implements store.TaskStore.Update
func (m *MockTaskStore) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	m.record("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, patch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	updated := patch.Apply(t)
	m.tasks[id] = updated
	return &updated, nil
}

// Delete implements store.TaskStore.Delete
func (m *MockTaskStore) Delete(ctx context.Context, id string) (*domain.Task, error) {
	m.record("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return &t, nil
}
