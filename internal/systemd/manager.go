// Package systemd is the service-manager backend for hosts where the daemon
// runs as a systemd unit instead of under procd.
package systemd

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"tailscale-webui/internal/runner"
	"tailscale-webui/internal/service"
)

var unitNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@-]+\.service$`)

// Manager queries and controls units through systemctl.
type Manager struct {
	bin    string
	runner runner.Runner
}

var (
	_ service.Querier    = (*Manager)(nil)
	_ service.Controller = (*Manager)(nil)
)

// NewManager creates a manager that runs systemctl through r.
func NewManager(r runner.Runner) *Manager {
	return &Manager{bin: "systemctl", runner: r}
}

// Lookup maps `systemctl is-active` onto a RunState. The instance name is
// folded into a template unit (name@instance) unless it is the default
// primary instance.
func (m *Manager) Lookup(ctx context.Context, name, instance string) (service.RunState, error) {
	unit := name
	if inst := strings.TrimSpace(instance); inst != "" && inst != "instance1" {
		unit = name + "@" + inst
	}
	status, err := m.Status(ctx, unit)
	if err != nil {
		return service.RunState{}, err
	}
	switch status {
	case "active", "reloading", "deactivating":
		return service.RunState{Found: true, Running: true}, nil
	case "inactive", "failed", "activating":
		return service.RunState{Found: true}, nil
	default:
		return service.RunState{}, nil
	}
}

// Status runs `systemctl is-active <unit>` and returns the state string.
// is-active exits non-zero for every state but active, so only an
// execution failure is an error.
func (m *Manager) Status(ctx context.Context, unitName string) (string, error) {
	resolved, err := normalizeUnitName(unitName)
	if err != nil {
		return "", err
	}
	res, err := m.runner.Run(ctx, m.bin, "is-active", resolved)
	if err != nil {
		return "", fmt.Errorf("systemctl is-active %s: %w", resolved, err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Start runs `systemctl start <unit>`.
func (m *Manager) Start(ctx context.Context, unitName string) error {
	return m.runSystemctl(ctx, "start", unitName)
}

// Stop runs `systemctl stop <unit>`.
func (m *Manager) Stop(ctx context.Context, unitName string) error {
	return m.runSystemctl(ctx, "stop", unitName)
}

// Restart runs `systemctl restart <unit>`.
func (m *Manager) Restart(ctx context.Context, unitName string) error {
	return m.runSystemctl(ctx, "restart", unitName)
}

// Enable runs `systemctl enable <unit>`.
func (m *Manager) Enable(ctx context.Context, unitName string) error {
	return m.runSystemctl(ctx, "enable", unitName)
}

// Disable runs `systemctl disable <unit>`.
func (m *Manager) Disable(ctx context.Context, unitName string) error {
	return m.runSystemctl(ctx, "disable", unitName)
}

func (m *Manager) runSystemctl(ctx context.Context, action, unitName string) error {
	resolved, err := normalizeUnitName(unitName)
	if err != nil {
		return err
	}
	res, err := m.runner.Run(ctx, m.bin, action, resolved)
	if err != nil {
		return fmt.Errorf("systemctl %s %s: %w", action, resolved, err)
	}
	if !res.OK() {
		return fmt.Errorf("systemctl %s %s: exit %d: %s", action, resolved, res.Code, res.Combined())
	}
	return nil
}

func normalizeUnitName(unitName string) (string, error) {
	trimmed := strings.TrimSpace(unitName)
	if trimmed == "" {
		return "", fmt.Errorf("unit name is required")
	}
	if !strings.HasSuffix(trimmed, ".service") {
		trimmed += ".service"
	}
	if filepath.Base(trimmed) != trimmed || strings.ContainsAny(trimmed, `/\`) {
		return "", fmt.Errorf("invalid unit name %q", unitName)
	}
	if !unitNamePattern.MatchString(trimmed) {
		return "", fmt.Errorf("invalid unit name %q", unitName)
	}
	return trimmed, nil
}
