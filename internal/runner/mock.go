package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// MockRunner is a deterministic runner used by unit tests. Results and
// errors are keyed by the space-joined argv.
type MockRunner struct {
	mu sync.Mutex

	RunCalls   [][]string
	StartCalls [][]string

	Results     map[string]Result
	RunErrors   map[string]error
	StartErrors map[string]error

	// RunHook, when set, is invoked before the configured result is returned.
	RunHook func(ctx context.Context, argv []string)
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	call := append([]string{name}, args...)
	m.mu.Lock()
	m.RunCalls = append(m.RunCalls, call)
	hook := m.RunHook
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, call)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.Join(call, " ")
	if err, ok := m.RunErrors[key]; ok {
		return Result{Code: -1}, err
	}
	res, ok := m.Results[key]
	if !ok {
		return Result{Code: -1}, errors.New("mock result not configured: " + key)
	}
	return res, nil
}

func (m *MockRunner) Start(name string, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := append([]string{name}, args...)
	m.StartCalls = append(m.StartCalls, call)
	if err, ok := m.StartErrors[strings.Join(call, " ")]; ok {
		return err
	}
	return nil
}

// Set registers the result for a command line.
func (m *MockRunner) Set(argv string, res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Results == nil {
		m.Results = make(map[string]Result)
	}
	m.Results[argv] = res
}

// Started returns a copy of the recorded Start invocations.
func (m *MockRunner) Started() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.StartCalls))
	copy(out, m.StartCalls)
	return out
}

// Ran returns a copy of the recorded Run invocations.
func (m *MockRunner) Ran() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.RunCalls))
	copy(out, m.RunCalls)
	return out
}
