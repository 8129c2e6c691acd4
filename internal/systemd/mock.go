package systemd

import (
	"context"
	"sync"

	"tailscale-webui/internal/service"
)

// MockManager is a test helper implementing service.Querier and
// service.Controller. Calls records "action unit" pairs.
type MockManager struct {
	mu    sync.Mutex
	Calls []string

	LookupFunc  func(name, instance string) (service.RunState, error)
	StartFunc   func(unitName string) error
	StopFunc    func(unitName string) error
	RestartFunc func(unitName string) error
	EnableFunc  func(unitName string) error
	DisableFunc func(unitName string) error
}

func (m *MockManager) record(action, unit string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, action+" "+unit)
}

// Recorded returns a copy of the recorded calls.
func (m *MockManager) Recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

func (m *MockManager) Lookup(_ context.Context, name, instance string) (service.RunState, error) {
	m.record("lookup", name)
	if m.LookupFunc != nil {
		return m.LookupFunc(name, instance)
	}
	return service.RunState{}, nil
}

func (m *MockManager) Start(_ context.Context, unitName string) error {
	m.record("start", unitName)
	if m.StartFunc != nil {
		return m.StartFunc(unitName)
	}
	return nil
}

func (m *MockManager) Stop(_ context.Context, unitName string) error {
	m.record("stop", unitName)
	if m.StopFunc != nil {
		return m.StopFunc(unitName)
	}
	return nil
}

func (m *MockManager) Restart(_ context.Context, unitName string) error {
	m.record("restart", unitName)
	if m.RestartFunc != nil {
		return m.RestartFunc(unitName)
	}
	return nil
}

func (m *MockManager) Enable(_ context.Context, unitName string) error {
	m.record("enable", unitName)
	if m.EnableFunc != nil {
		return m.EnableFunc(unitName)
	}
	return nil
}

func (m *MockManager) Disable(_ context.Context, unitName string) error {
	m.record("disable", unitName)
	if m.DisableFunc != nil {
		return m.DisableFunc(unitName)
	}
	return nil
}
