package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/generation"
)

// TransportResult is one scripted transport response.
type TransportResult struct {
	Envelope []byte
	Err      error
}

// MockTransport is a call-counting stand-in for the model transport.
//
// Results are returned in order; once exhausted the last result repeats.
// SendFn, when set, takes precedence.
type MockTransport struct {
	SendFn  func(ctx context.Context, req *generation.Request) ([]byte, error)
	Results []TransportResult

	mu       sync.Mutex
	calls    int
	requests []*generation.Request
}

// NewMockTransport creates a MockTransport returning results in order
func NewMockTransport(results ...TransportResult) *MockTransport {
	return &MockTransport{Results: results}
}

// NewMockTransportWithCards creates a MockTransport that always returns an
// envelope wrapping the given cards
func NewMockTransportWithCards(cards ...domain.Flashcard) *MockTransport {
	envelope, _ := generation.EncodeCards(cards)
	return NewMockTransport(TransportResult{Envelope: envelope})
}

// Send implements gemini.Transport
func (m *MockTransport) Send(ctx context.Context, req *generation.Request) ([]byte, error) {
	m.mu.Lock()
	index := m.calls
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.SendFn != nil {
		return m.SendFn(ctx, req)
	}

	if len(m.Results) == 0 {
		return generation.EmptyEnvelope(), nil
	}
	if index >= len(m.Results) {
		index = len(m.Results) - 1
	}
	result := m.Results[index]
	return result.Envelope, result.Err
}

// Calls returns the number of Send calls
func (m *MockTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns every request passed to Send
func (m *MockTransport) Requests() []*generation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*generation.Request(nil), m.requests...)
}
