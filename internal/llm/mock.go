package llm

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

// MockResponse is one canned reply. Err, when set, is returned instead of
// Content.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Delay holds the reply back, honouring context cancellation.
	Delay time.Duration
}

// MockProvider replays canned responses in FIFO order and records every
// request. An exhausted queue yields ErrProviderUnavailable.
type MockProvider struct {
	// Strict validates canned content against the request schema, the way
	// real providers do.
	Strict bool

	mu        sync.Mutex
	responses []MockResponse
	requests  []Request
}

func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{}
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	strict := m.Strict
	m.mu.Unlock()

	if next.Delay > 0 {
		timer := time.NewTimer(next.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if next.Err != nil {
		return nil, next.Err
	}

	content := next.Content
	if strict {
		var err error
		if content, err = structured(req.Schema, string(next.Content)); err != nil {
			return nil, err
		}
	}
	return &Response{Content: content, Usage: next.Usage, Model: "mock", StopReason: StopEnd}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// LastRequest returns the most recent request, or false if none.
func (m *MockProvider) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}, false
	}
	return m.requests[len(m.requests)-1], true
}
