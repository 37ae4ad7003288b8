package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/observability"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/redact"
	"github.com/phrazzld/todo-api/internal/store"
)

// Operation names used in logs and metrics labels.
const (
	OpStatus = "status"
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Gate is the connectivity flag as seen by the request path.
// connectivity.Tracker implements it.
type Gate interface {
	Available() bool
	MarkUnavailable(err error)
	LastError() error
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records request outcomes and database errors in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock replaces time.Now for request timing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service implements the task operations.
type Service struct {
	store   store.TaskStore
	gate    Gate
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService creates a Service. It panics if taskStore or gate is nil.
func NewService(taskStore store.TaskStore, gate Gate, logger *slog.Logger, opts ...Option) *Service {
	if taskStore == nil {
		panic("taskStore cannot be nil")
	}
	if gate == nil {
		panic("gate cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		store:  taskStore,
		gate:   gate,
		logger: logger.With("component", "todo_service"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status reports database health. It always answers 200 and never changes
// the gate; a failed probe logs the gate's last recorded error.
func (s *Service) Status(ctx context.Context) (res Result) {
	defer s.observe(OpStatus, s.now(), &res)

	now, err := s.store.Ping(ctx)
	if err != nil {
		attrs := []any{"error", redact.Error(err), "available", s.gate.Available()}
		if last := s.gate.LastError(); last != nil {
			attrs = append(attrs, "last_error", redact.Error(last))
		}
		s.log(ctx).Warn("health probe failed", attrs...)
		return ok(StatusResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		})
	}

	return ok(StatusResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: &now,
	})
}

// Admit reports whether the gate lets op through. When it does not, the
// returned Result is the 503 op would have produced, already recorded.
func (s *Service) Admit(op string) (Result, bool) {
	if s.gate.Available() {
		return Result{}, true
	}
	res := unavailable()
	s.metrics.ObserveRequest(op, res.Status, 0)
	return res, false
}

// List returns every task ordered by id.
func (s *Service) List(ctx context.Context) (res Result) {
	defer s.observe(OpList, s.now(), &res)
	if !s.gate.Available() {
		return unavailable()
	}

	tasks, err := s.store.List(ctx)
	if err != nil {
		return s.failure(ctx, OpList, err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return ok(tasks)
}

// Get returns a single task.
func (s *Service) Get(ctx context.Context, id string) (res Result) {
	defer s.observe(OpGet, s.now(), &res)
	if !s.gate.Available() {
		return unavailable()
	}

	task, err := s.store.Get(ctx, id)
	if err != nil {
		return s.failure(ctx, OpGet, err)
	}
	return ok(task)
}

// Create inserts a task built from a JSON body of the form
// {"title": string, "state"?: bool}.
func (s *Service) Create(ctx context.Context, body []byte) (res Result) {
	defer s.observe(OpCreate, s.now(), &res)
	if !s.gate.Available() {
		return unavailable()
	}

	fields, valid := decodeFields(body)
	if !valid {
		return badRequest(MsgInvalidJSON)
	}

	title, state, msg := parseCreate(fields)
	if msg != "" {
		return badRequest(msg)
	}

	created, err := s.insert(ctx, title, state)
	if errors.Is(err, errInvalidTask) {
		return badRequest(MsgTitleRequired)
	}
	if err != nil {
		return s.failure(ctx, OpCreate, err)
	}

	s.log(ctx).Info("task created", "task_id", created.ID)
	return Result{Status: http.StatusCreated, Body: created}
}

var errInvalidTask = errors.New("invalid task")

// insert creates a task under a fresh id, drawing one more id if the first
// collides with an existing row.
func (s *Service) insert(ctx context.Context, title string, state bool) (*domain.Task, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		task, terr := domain.NewTask(title, state)
		if terr != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidTask, terr)
		}

		var created *domain.Task
		created, err = s.store.Create(ctx, task)
		if !errors.Is(err, store.ErrDuplicate) {
			return created, err
		}
		s.log(ctx).Warn("task id collision", "task_id", task.ID, "attempt", attempt+1)
	}
	return nil, err
}

// Update applies the members present in a JSON body of the form
// {"title"?: string, "state"?: bool}. The task must exist before any field
// is validated; a body with neither member returns the task unchanged.
func (s *Service) Update(ctx context.Context, id string, body []byte) (res Result) {
	defer s.observe(OpUpdate, s.now(), &res)
	if !s.gate.Available() {
		return unavailable()
	}

	fields, valid := decodeFields(body)
	if !valid {
		return badRequest(MsgInvalidJSON)
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return s.failure(ctx, OpUpdate, err)
	}

	patch, msg := parsePatch(fields)
	if msg != "" {
		return badRequest(msg)
	}
	if patch.IsEmpty() {
		return ok(current)
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return s.failure(ctx, OpUpdate, err)
	}

	s.log(ctx).Info("task updated", "task_id", id)
	return ok(updated)
}

// Delete removes a task and returns it.
func (s *Service) Delete(ctx context.Context, id string) (res Result) {
	defer s.observe(OpDelete, s.now(), &res)
	if !s.gate.Available() {
		return unavailable()
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return s.failure(ctx, OpDelete, err)
	}

	s.log(ctx).Info("task deleted", "task_id", id)
	return ok(deleted)
}

// failure maps a store error to a Result. Not-found is an ordinary outcome;
// anything else clears the gate unless the caller went away.
func (s *Service) failure(ctx context.Context, op string, err error) Result {
	if store.IsNotFoundError(err) {
		return notFound()
	}

	s.metrics.ObserveDatabaseError(op)
	s.log(ctx).Error("database query error",
		"operation", op,
		"error", redact.Error(err))

	if !errors.Is(err, context.Canceled) {
		s.gate.MarkUnavailable(err)
	}
	return databaseError(err)
}

func (s *Service) observe(op string, start time.Time, res *Result) {
	s.metrics.ObserveRequest(op, res.Status, s.now().Sub(start))
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}
