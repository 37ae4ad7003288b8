package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/todo-api/internal/redact"
	"github.com/phrazzld/todo-api/internal/store"
)

// DefaultReconnectInterval is used by Start when no positive interval is given.
const DefaultReconnectInterval = 10 * time.Second

// Option configures a Tracker.
type Option func(*Tracker)

// WithStateObserver registers fn to be called on every flag transition.
func WithStateObserver(fn func(available bool)) Option {
	return func(t *Tracker) {
		t.observer = fn
	}
}

// Tracker owns the database availability flag. It starts unavailable.
type Tracker struct {
	initializer store.SchemaInitializer
	logger      *slog.Logger
	observer    func(available bool)

	available atomic.Bool

	// initMu serializes schema initialization attempts.
	initMu sync.Mutex

	mu      sync.Mutex
	lastErr error
}

// NewTracker creates a Tracker that brings the database up through initializer.
func NewTracker(initializer store.SchemaInitializer, logger *slog.Logger, opts ...Option) *Tracker {
	if initializer == nil {
		panic("initializer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &Tracker{
		initializer: initializer,
		logger:      logger.With("component", "connectivity"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Initialize ensures the schema exists. Success marks the database available.
// Failure marks it unavailable and is logged, not returned: the service keeps
// running and the reconnect loop retries.
func (t *Tracker) Initialize(ctx context.Context) {
	t.initMu.Lock()
	defer t.initMu.Unlock()

	if err := t.initializer.EnsureSchema(ctx); err != nil {
		t.logger.Error("database initialization failed", "error", redact.Error(err))
		t.set(false, err)
		return
	}

	t.logger.Debug("database initialized")
	t.set(true, nil)
}

// EnsureConnection re-runs Initialize when the database is marked unavailable.
func (t *Tracker) EnsureConnection(ctx context.Context) {
	if t.Available() {
		return
	}
	t.logger.Info("attempting to reconnect to database")
	t.Initialize(ctx)
}

// Run calls EnsureConnection on every tick until ctx is done or ticks is closed.
func (t *Tracker) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			t.EnsureConnection(ctx)
		}
	}
}

// Start runs the reconnect loop on a ticker in its own goroutine. The returned
// function stops the loop and waits for it to exit; calling it again is a no-op.
func (t *Tracker) Start(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultReconnectInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()
		t.Run(ctx, ticker.C)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// MarkUnavailable forces the flag false. A nil err keeps the previous error.
func (t *Tracker) MarkUnavailable(err error) {
	t.set(false, err)
}

// MarkAvailable sets the flag true. Called when the pool reports a new connection.
func (t *Tracker) MarkAvailable() {
	t.set(true, nil)
}

// Available reports the current flag value.
func (t *Tracker) Available() bool {
	return t.available.Load()
}

// LastError returns the error behind the most recent transition to unavailable,
// or nil once the database is available again.
func (t *Tracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// set records the new state. Transitions are applied under mu so the
// observer sees them in order.
func (t *Tracker) set(available bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if available {
		t.lastErr = nil
	} else if err != nil {
		t.lastErr = err
	}

	if t.available.Swap(available) == available {
		return
	}

	if available {
		t.logger.Info("database became available")
	} else if err != nil {
		t.logger.Warn("database became unavailable", "error", redact.Error(err))
	} else {
		t.logger.Warn("database became unavailable")
	}

	if t.observer != nil {
		t.observer(available)
	}
}
