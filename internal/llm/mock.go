package llm

import (
	"context"
	"sync"
)

// MockClient replays scripted responses in order. Once the script runs out
// it keeps returning the last entry, so loop tests can script only the
// interesting rounds.
type MockClient struct {
	mu        sync.Mutex
	responses []*Response
	errs      []error
	calls     int
	requests  []*Request
}

var _ Client = (*MockClient)(nil)

// NewMockClient scripts the given completion texts.
func NewMockClient(contents ...string) *MockClient {
	m := &MockClient{}
	for _, content := range contents {
		m.responses = append(m.responses, &Response{Content: content, Model: "mock"})
		m.errs = append(m.errs, nil)
	}
	return m
}

// FailWith appends a scripted failure.
func (m *MockClient) FailWith(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, nil)
	m.errs = append(m.errs, err)
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++
	if idx < 0 {
		return &Response{Content: "", Model: "mock"}, nil
	}
	if m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	return m.responses[idx], nil
}

// Calls reports how many completions were requested.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns the requests seen so far.
func (m *MockClient) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.requests))
	copy(out, m.requests)
	return out
}
