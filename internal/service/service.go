// Package service queries and controls the service manager that supervises
// the tailscale daemon.
package service

import "context"

// RunState is a single service-manager observation for one instance.
// Found is false when the service or instance was not reported at all.
type RunState struct {
	Found   bool `json:"found"`
	Running bool `json:"running"`
}

// Querier reports whether a named service instance is running.
type Querier interface {
	Lookup(ctx context.Context, name, instance string) (RunState, error)
}

// Controller starts, stops and (de)registers a service for boot.
type Controller interface {
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
	Enable(ctx context.Context, name string) error
	Disable(ctx context.Context, name string) error
}

// Apply brings the service in line with the enabled flag: enabled services
// are registered for boot and restarted, disabled ones stopped and removed
// from boot.
func Apply(ctx context.Context, c Controller, name string, enabled bool) error {
	if enabled {
		if err := c.Enable(ctx, name); err != nil {
			return err
		}
		return c.Restart(ctx, name)
	}
	if err := c.Stop(ctx, name); err != nil {
		return err
	}
	return c.Disable(ctx, name)
}
