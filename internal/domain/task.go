package domain

import (
	"github.com/google/uuid"
)

// Task represents a single todo item.
type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	State bool   `json:"state"`
}

// NewTask creates a new Task with the given title and completion state.
// It generates a new random identifier for the task.
// Returns an error if validation fails.
func NewTask(title string, state bool) (*Task, error) {
	task := &Task{
		ID:    uuid.NewString(),
		Title: title,
		State: state,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == "" {
		return NewValidationError("id", "is required", ErrInvalidID)
	}

	if t.Title == "" {
		return NewValidationError("title", "is required", ErrEmptyTitle)
	}

	return nil
}

// TaskPatch is a partial update. A nil field was absent from the request and
// must be left untouched.
type TaskPatch struct {
	Title *string
	State *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.State == nil
}

// Apply returns a copy of t with the patch applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.State != nil {
		t.State = *p.State
	}
	return t
}
