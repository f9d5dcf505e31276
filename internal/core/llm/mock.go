package llm

import (
	"context"
	"sync"
)

// Mock implements Client for tests and keyless local runs. Responses are
// served from a queue when one is provided, otherwise from CompleteFunc,
// otherwise an empty string.
type Mock struct {
	mu        sync.Mutex
	responses []string
	usage     usageRecorder

	// CompleteFunc, when set, handles calls not covered by queued responses.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// Prompts records every prompt received, for assertions.
	Prompts []string
}

// NewMock creates an empty mock client.
func NewMock() *Mock {
	return &Mock{}
}

// Enqueue appends canned responses returned in order by Complete.
func (m *Mock) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = append(m.responses, responses...)
}

func (m *Mock) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)

	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		m.mu.Unlock()
		m.usage.record(0, 0, 0)

		return resp, nil
	}

	fn := m.CompleteFunc
	m.mu.Unlock()

	m.usage.record(0, 0, 0)

	if fn != nil {
		return fn(ctx, prompt)
	}

	return "", nil
}

func (m *Mock) Usage() Usage {
	return m.usage.snapshot()
}
