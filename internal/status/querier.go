// Package status derives the daemon's run and login state and renders it
// for the panel.
package status

import (
	"context"
	"time"

	"tailscale-webui/internal/diaglog"
	"tailscale-webui/internal/service"
	"tailscale-webui/internal/tailscale"
)

// DefaultInstance is the procd instance tailscaled runs as.
const DefaultInstance = "instance1"

// Snapshot is one observation of the daemon.
type Snapshot struct {
	Running   bool                 `json:"running"`
	Login     tailscale.LoginState `json:"login"`
	CheckedAt time.Time            `json:"checkedAt"`
}

// StatusSource is the subset of the tailscale client the querier uses.
type StatusSource interface {
	Status(ctx context.Context) (tailscale.Status, error)
	Login() error
}

// Querier combines the service manager and the tailscale CLI into a
// Snapshot. It never returns an error; failures degrade to not running
// and Unknown.
type Querier struct {
	services service.Querier
	client   StatusSource
	name     string
	instance string
	diag     *diaglog.Manager
	now      func() time.Time
}

// NewQuerier creates a querier for the named service instance.
func NewQuerier(services service.Querier, client StatusSource, name, instance string, diag *diaglog.Manager) *Querier {
	if instance == "" {
		instance = DefaultInstance
	}
	return &Querier{
		services: services,
		client:   client,
		name:     name,
		instance: instance,
		diag:     diag,
		now:      time.Now,
	}
}

// Query takes one snapshot for an open view. A backend that needs login
// without an auth URL gets `tailscale login` started.
func (q *Querier) Query(ctx context.Context) Snapshot {
	return q.snapshot(ctx, true)
}

// Observe takes a snapshot without starting a login. Background
// collectors use it.
func (q *Querier) Observe(ctx context.Context) Snapshot {
	return q.snapshot(ctx, false)
}

func (q *Querier) snapshot(ctx context.Context, triggerLogin bool) Snapshot {
	return Snapshot{
		Running:   q.running(ctx),
		Login:     q.login(ctx, triggerLogin),
		CheckedAt: q.now().UTC(),
	}
}

func (q *Querier) running(ctx context.Context) bool {
	state, err := q.services.Lookup(ctx, q.name, q.instance)
	if err != nil {
		q.diag.Debugf("service lookup %s/%s: %v", q.name, q.instance, err)
		return false
	}
	return state.Running
}

func (q *Querier) login(ctx context.Context, triggerLogin bool) tailscale.LoginState {
	st, err := q.client.Status(ctx)
	if err != nil {
		q.diag.Debugf("tailscale status: %v", err)
		return tailscale.Unknown("")
	}
	if triggerLogin && st.NeedsLoginTrigger() {
		q.diag.Infof("backend needs login without auth url, starting tailscale login")
		if err := q.client.Login(); err != nil {
			q.diag.Warnf("start tailscale login: %v", err)
		}
	}
	state, err := st.LoginState()
	if err != nil {
		q.diag.Debugf("derive login state: %v", err)
		return tailscale.Unknown("")
	}
	return state
}
