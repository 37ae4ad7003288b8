package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// Unavailabler is notified when a request panics.
type Unavailabler interface {
	MarkUnavailable(err error)
}

// NewRecoverer returns middleware that turns a panic into a 500 response.
// The panic is logged with its stack and the database is marked unavailable;
// the process keeps serving. http.ErrAbortHandler is re-raised.
func NewRecoverer(gate Unavailabler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				logger.FromContext(r.Context()).Error("recovered from panic",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				if gate != nil {
					gate.MarkUnavailable(err)
				}

				shared.RespondWithError(w, r, http.StatusInternalServerError, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
