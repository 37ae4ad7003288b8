package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/todo"
)

// TaskHandler exposes todo.Service over HTTP.
type TaskHandler struct {
	service *todo.Service
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service *todo.Service) *TaskHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	return &TaskHandler{service: service}
}

// Status handles GET /status.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.service.Status(r.Context()))
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.service.List(r.Context()))
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.service.Get(r.Context(), chi.URLParam(r, "id")))
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, todo.OpCreate)
	if !ok {
		return
	}
	h.write(w, r, h.service.Create(r.Context(), body))
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, todo.OpUpdate)
	if !ok {
		return
	}
	h.write(w, r, h.service.Update(r.Context(), chi.URLParam(r, "id"), body))
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.service.Delete(r.Context(), chi.URLParam(r, "id")))
}

// readBody reads the request body once the gate admits op. While the
// database is unavailable the body is never read and the answer is 503.
func (h *TaskHandler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	if res, admitted := h.service.Admit(op); !admitted {
		h.write(w, r, res)
		return nil, false
	}

	body, err := shared.ReadBody(w, r)
	if err == nil {
		return body, true
	}
	if errors.Is(err, shared.ErrBodyTooLarge) {
		shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
		return nil, false
	}
	shared.RespondWithError(w, r, http.StatusBadRequest, todo.MsgInvalidJSON)
	return nil, false
}

// write renders res. Error results share the body shape of every other
// error this API writes, trace ID included.
func (h *TaskHandler) write(w http.ResponseWriter, r *http.Request, res todo.Result) {
	if body, isErr := res.Body.(todo.ErrorResponse); isErr {
		shared.RespondWithErrorDetail(w, r, res.Status, body.Error, body.Message)
		return
	}
	shared.RespondWithJSON(w, r, res.Status, res.Body)
}
