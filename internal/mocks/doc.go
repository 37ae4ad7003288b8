// Package mocks provides centralized mock implementations for testing.
//
// Mocks record their calls and let a test override any method through a
// function field. Without overrides MockTaskStore behaves like a small
// in-memory database, which is enough for most handler tests.
//
// Usage:
//
//	import "github.com/phrazzld/todo-api/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    store := mocks.NewMockTaskStore(domain.Task{ID: "a", Title: "first"})
//	    store.ListFn = func(ctx context.Context) ([]domain.Task, error) {
//	        return nil, errors.New("connection reset")
//	    }
//
//	    // Use the mock in your test...
//	}
package mocks
