package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/flashforge/internal/generation"
)

// MockInvoker implements generation.Invoker for testing
type MockInvoker struct {
	// InvokeFn allows test cases to mock the Invoke behavior
	InvokeFn func(ctx context.Context, req *generation.Request) ([]byte, error)

	// Default response values
	Envelope []byte
	Err      error

	mu       sync.Mutex
	requests []*generation.Request
}

var _ generation.Invoker = (*MockInvoker)(nil)

// Invoke implements the generation.Invoker interface
func (m *MockInvoker) Invoke(ctx context.Context, req *generation.Request) ([]byte, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.InvokeFn != nil {
		return m.InvokeFn(ctx, req)
	}
	return m.Envelope, m.Err
}

// Calls returns the number of Invoke calls
func (m *MockInvoker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns every request passed to Invoke
func (m *MockInvoker) Requests() []*generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*generation.Request(nil), m.requests...)
}
