package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/flashforge/internal/generation"
)

// MockReporter records every reported failure
type MockReporter struct {
	mu       sync.Mutex
	failures []generation.Failure
}

var _ generation.Reporter = (*MockReporter)(nil)

// ReportFailure implements the generation.Reporter interface
func (m *MockReporter) ReportFailure(_ context.Context, failure generation.Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, failure)
}

// Failures returns all reported failures in order
func (m *MockReporter) Failures() []generation.Failure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.Failure(nil), m.failures...)
}
