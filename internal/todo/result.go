package todo

import (
	"net/http"
	"time"
)

// Error messages returned in ErrorResponse.Error.
const (
	MsgDatabaseUnavailable = "Database unavailable"
	MsgServiceUnavailable  = "Service temporarily unavailable. Please try again later."
	MsgDatabaseError       = "Database error"
	MsgTaskNotFound        = "Task not found"
	MsgInvalidJSON         = "Invalid JSON body"
	MsgTitleRequired       = "Title is required and must be a string"
	MsgTitleNotString      = "Title must be a string"
	MsgStateNotBoolean     = "State must be a boolean"
)

// Result is the outcome of one operation.
type Result struct {
	Status int
	Body   any
}

// ErrorResponse is the body of every non-2xx Result.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is the body of the health probe.
type StatusResponse struct {
	Status    string     `json:"status"`
	Database  string     `json:"database"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func ok(body any) Result {
	return Result{Status: http.StatusOK, Body: body}
}

func badRequest(msg string) Result {
	return Result{Status: http.StatusBadRequest, Body: ErrorResponse{Error: msg}}
}

func notFound() Result {
	return Result{Status: http.StatusNotFound, Body: ErrorResponse{Error: MsgTaskNotFound}}
}

func unavailable() Result {
	return Result{
		Status: http.StatusServiceUnavailable,
		Body:   ErrorResponse{Error: MsgDatabaseUnavailable, Message: MsgServiceUnavailable},
	}
}

func databaseError(err error) Result {
	return Result{
		Status: http.StatusInternalServerError,
		Body:   ErrorResponse{Error: MsgDatabaseError, Message: err.Error()},
	}
}
