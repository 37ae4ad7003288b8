package mocks

import (
	"sync"
)

// MockGate is a connectivity flag a test can flip directly.
type MockGate struct {
	mu          sync.Mutex
	unavailable bool
	marks       []error
}

// NewMockGate returns a gate in the given state.
func NewMockGate(available bool) *MockGate {
	return &MockGate{unavailable: !available}
}

func (g *MockGate) Available() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.unavailable
}

func (g *MockGate) MarkUnavailable(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unavailable = true
	g.marks = append(g.marks, err)
}

// LastError returns the most recent error passed to MarkUnavailable.
func (g *MockGate) LastError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.marks) == 0 {
		return nil
	}
	return g.marks[len(g.marks)-1]
}

// SetAvailable flips the flag.
func (g *MockGate) SetAvailable(available bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unavailable = !available
}

// Marks returns the errors passed to MarkUnavailable.
func (g *MockGate) Marks() []error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]error(nil), g.marks...)
}
