package llm

import (
	"context"
	"slices"
	"sync"
)

// Call records one ChatComplete invocation on MockCompleter.
type Call struct {
	System   string
	Messages []Message
	Options  Options
}

// MockCompleter implements Completer for unit tests. Handler decides the
// response; every call is recorded. Safe for concurrent use.
type MockCompleter struct {
	Handler func(ctx context.Context, call Call) (string, error)

	mu    sync.Mutex
	calls []Call
}

// NewMockCompleter returns a mock that answers JSON-only calls with jsonReply
// and every other call with reply.
func NewMockCompleter(reply, jsonReply string) *MockCompleter {
	return &MockCompleter{
		Handler: func(_ context.Context, call Call) (string, error) {
			if call.Options.JSONOnly {
				return jsonReply, nil
			}
			return reply, nil
		},
	}
}

func (m *MockCompleter) ChatComplete(ctx context.Context, system string, messages []Message, opts Options) (string, error) {
	call := Call{System: system, Messages: slices.Clone(messages), Options: opts}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if m.Handler == nil {
		return "", NewUpstreamError(KindUnavailable, 0, ErrUnavailable)
	}
	return m.Handler(ctx, call)
}

// Calls returns a copy of the recorded calls.
func (m *MockCompleter) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Compile-time interface check
var _ Completer = (*MockCompleter)(nil)
