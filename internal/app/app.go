// Package app wires configuration, the database pool, the connectivity
// tracker and the HTTP router into a runnable service. Both the standalone
// server and the serverless function shell are built from it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/phrazzld/todo-api/internal/api"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/connectivity"
	"github.com/phrazzld/todo-api/internal/observability"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/todo"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "todo"

// Options selects how the HTTP surface is exposed.
type Options struct {
	// Port to listen on.
	Port int

	// Prefix mounts the routes under a path, e.g. "/api".
	Prefix string

	// ServeMetrics exposes /metrics.
	ServeMetrics bool
}

// App holds the wired service.
type App struct {
	config  *config.Config
	options Options
	logger  *slog.Logger

	db      *sql.DB
	tracker *connectivity.Tracker
	metrics *observability.Metrics
	handler http.Handler

	mu            sync.Mutex
	stopReconnect func()
}

// New opens the pool and builds every component. It does not contact the
// database; call Start for that.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	metrics := observability.NewMetrics(MetricsNamespace)

	// Pool events feed the tracker, which is created below. No connection
	// is attempted before then.
	var tracker *connectivity.Tracker
	db, err := postgres.Open(cfg.Database, postgres.ConnHooks{
		OnConnect: func() { tracker.MarkAvailable() },
		OnError:   func(err error) { tracker.MarkUnavailable(err) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema, err := postgres.NewSchema(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}

	tracker = connectivity.NewTracker(schema, logger,
		connectivity.WithStateObserver(metrics.SetDatabaseAvailable))

	taskStore := postgres.NewPostgresTaskStore(db, logger)
	service := todo.NewService(taskStore, tracker, logger, todo.WithMetrics(metrics))

	routerCfg := api.RouterConfig{
		Service: service,
		Gate:    tracker,
		Logger:  logger,
		Prefix:  opts.Prefix,
	}
	if opts.ServeMetrics {
		routerCfg.Metrics = metrics.Handler()
	}

	return &App{
		config:  cfg,
		options: opts,
		logger:  logger,
		db:      db,
		tracker: tracker,
		metrics: metrics,
		handler: api.NewRouter(routerCfg),
	}, nil
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Tracker returns the connectivity tracker.
func (a *App) Tracker() *connectivity.Tracker {
	return a.tracker
}

// Start makes one initialization attempt, bounded by the reconnect interval,
// and launches the reconnect loop. A failed attempt is not an error: the
// service starts degraded.
func (a *App) Start(ctx context.Context) {
	initCtx, cancel := context.WithTimeout(ctx, a.config.Database.ReconnectInterval)
	a.tracker.Initialize(initCtx)
	cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopReconnect == nil {
		a.stopReconnect = a.tracker.Start(ctx, a.config.Database.ReconnectInterval)
	}
}

// Close stops the reconnect loop and closes the pool.
func (a *App) Close() error {
	a.mu.Lock()
	stop := a.stopReconnect
	a.stopReconnect = nil
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Serve starts the service and answers HTTP until ctx is done, then shuts
// down gracefully: in-flight requests finish, the reconnect loop stops and
// the pool closes.
func (a *App) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(a.options.Port)))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", a.options.Port, err)
	}
	return a.ServeListener(ctx, listener)
}

// ServeListener is Serve on an existing listener.
func (a *App) ServeListener(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.Start(ctx)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "addr", listener.Addr().String())
		serveErr <- server.Serve(listener)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down server...")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Server failed", "error", err)
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown failed", "error", err)
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown failed: %w", err))
	}

	if err := a.Close(); err != nil {
		runErr = errors.Join(runErr, err)
	}

	a.logger.Info("Server shutdown completed")
	return runErr
}
