package connectivity

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInitializer fails while failing is set.
type fakeInitializer struct {
	calls   atomic.Int32
	failing atomic.Bool
}

func (f *fakeInitializer) EnsureSchema(ctx context.Context) error {
	f.calls.Add(1)
	if f.failing.Load() {
		return errors.New("connect: connection refused")
	}
	return nil
}

func newTestTracker(t *testing.T, init *fakeInitializer, opts ...Option) (*Tracker, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewTracker(init, logger, opts...), &buf
}

func TestNewTracker(t *testing.T) {
	assert.Panics(t, func() { NewTracker(nil, nil) })

	tracker := NewTracker(&fakeInitializer{}, nil)
	assert.False(t, tracker.Available(), "tracker starts unavailable")
	assert.NoError(t, tracker.LastError())
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("success_marks_available", func(t *testing.T) {
		init := &fakeInitializer{}
		tracker, _ := newTestTracker(t, init)

		tracker.Initialize(ctx)

		assert.True(t, tracker.Available())
		assert.NoError(t, tracker.LastError())
		assert.EqualValues(t, 1, init.calls.Load())
	})

	t.Run("failure_marks_unavailable_and_records_error", func(t *testing.T) {
		init := &fakeInitializer{}
		init.failing.Store(true)
		tracker, logs := newTestTracker(t, init)
		tracker.MarkAvailable()

		tracker.Initialize(ctx)

		assert.False(t, tracker.Available())
		require.Error(t, tracker.LastError())
		assert.Contains(t, tracker.LastError().Error(), "connection refused")
		assert.Contains(t, logs.String(), "database initialization failed")
		assert.Contains(t, logs.String(), "database became unavailable")
	})
}

func TestEnsureConnection(t *testing.T) {
	ctx := context.Background()
	init := &fakeInitializer{}
	tracker, _ := newTestTracker(t, init)

	tracker.Initialize(ctx)
	tracker.EnsureConnection(ctx)
	assert.EqualValues(t, 1, init.calls.Load(), "no attempt while available")

	tracker.MarkUnavailable(errors.New("server closed the connection"))
	tracker.EnsureConnection(ctx)
	assert.EqualValues(t, 2, init.calls.Load())
	assert.True(t, tracker.Available())
}

func TestRun(t *testing.T) {
	init := &fakeInitializer{}
	init.failing.Store(true)

	var (
		mu          sync.Mutex
		transitions []bool
	)
	tracker, _ := newTestTracker(t, init, WithStateObserver(func(available bool) {
		mu.Lock()
		transitions = append(transitions, available)
		mu.Unlock()
	}))

	tracker.Initialize(context.Background())
	require.False(t, tracker.Available())

	ticks := make(chan time.Time)
	done := make(chan struct{})
	go func() {
		defer close(done)
		tracker.Run(context.Background(), ticks)
	}()

	// Unbuffered sends hand each tick to the loop; a send completes only
	// after the previous tick was fully handled.
	ticks <- time.Now()
	ticks <- time.Now()
	init.failing.Store(false)
	ticks <- time.Now()
	ticks <- time.Now()
	close(ticks)
	<-done

	assert.True(t, tracker.Available())
	assert.EqualValues(t, 4, init.calls.Load(), "initial attempt, two failures, one success, then idle")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true}, transitions)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	tracker, _ := newTestTracker(t, &fakeInitializer{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		tracker.Run(ctx, make(chan time.Time))
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStart(t *testing.T) {
	init := &fakeInitializer{}
	tracker, _ := newTestTracker(t, init)

	stop := tracker.Start(context.Background(), time.Millisecond)

	require.Eventually(t, tracker.Available, time.Second, time.Millisecond)

	stop()
	stop()

	calls := init.calls.Load()
	tracker.MarkUnavailable(nil)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, init.calls.Load(), "no attempts after stop")
}

func TestMarkers(t *testing.T) {
	var transitions []bool
	tracker, logs := newTestTracker(t, &fakeInitializer{}, WithStateObserver(func(available bool) {
		transitions = append(transitions, available)
	}))

	tracker.MarkAvailable()
	tracker.MarkAvailable()
	assert.True(t, tracker.Available())

	cause := errors.New("terminating connection due to administrator command")
	tracker.MarkUnavailable(cause)
	assert.False(t, tracker.Available())
	assert.Equal(t, cause, tracker.LastError())

	tracker.MarkUnavailable(nil)
	assert.Equal(t, cause, tracker.LastError(), "nil keeps previous error")

	tracker.MarkAvailable()
	assert.NoError(t, tracker.LastError())

	assert.Equal(t, []bool{true, false, true}, transitions)
	assert.Contains(t, logs.String(), "database became available")
}

func TestAvailableConcurrentReads(t *testing.T) {
	tracker, _ := newTestTracker(t, &fakeInitializer{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = tracker.Available()
			}
		}()
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				tracker.MarkAvailable()
			} else {
				tracker.MarkUnavailable(errors.New("down"))
			}
		}(i)
	}
	wg.Wait()
}
