package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	apiMiddleware "github.com/phrazzld/todo-api/internal/api/middleware"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/todo"
)

// RouterConfig holds the router's dependencies.
type RouterConfig struct {
	Service *todo.Service

	// Gate is cleared when a request panics. Optional.
	Gate apiMiddleware.Unavailabler

	Logger *slog.Logger

	// Prefix mounts every route under a path such as "/api". Empty means root.
	Prefix string

	// Metrics is served at /metrics when set. It is never prefixed.
	Metrics http.Handler
}

// NewRouter builds the HTTP handler for the task API.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewTaskHandler(cfg.Service)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(cfg.Logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(apiMiddleware.NewRecoverer(cfg.Gate))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{shared.TraceIDHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	routes := func(r chi.Router) {
		r.Get("/status", handler.Status)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", handler.ListTasks)
			r.Post("/", handler.CreateTask)
			r.Get("/{id}", handler.GetTask)
			r.Put("/{id}", handler.UpdateTask)
			r.Delete("/{id}", handler.DeleteTask)
		})
	}

	if prefix := normalizePrefix(cfg.Prefix); prefix != "" {
		r.Route(prefix, routes)
	} else {
		routes(r)
	}

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	return r
}

// normalizePrefix returns "" or a path with a leading and no trailing slash.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
