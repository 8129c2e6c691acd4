package history

import (
	"context"
	"database/sql"
	"time"

	"tailscale-webui/internal/database"
	"tailscale-webui/internal/diaglog"
	"tailscale-webui/internal/poller"
	"tailscale-webui/internal/status"
)

// Observer takes status snapshots without side effects on the daemon.
type Observer interface {
	Observe(ctx context.Context) status.Snapshot
}

const cleanupEvery = time.Hour

// Recorder polls the daemon in the background and records transitions.
type Recorder struct {
	store     *Store
	db        *sql.DB
	observer  Observer
	retention time.Duration
	diag      *diaglog.Manager

	lastCleanup time.Time
}

// NewRecorder creates a recorder. retention bounds stored rows.
func NewRecorder(store *Store, db *sql.DB, o Observer, retention time.Duration, diag *diaglog.Manager) *Recorder {
	return &Recorder{store: store, db: db, observer: o, retention: retention, diag: diag}
}

// Start launches the background poll. Stop the returned task on shutdown.
func (r *Recorder) Start(ctx context.Context, interval time.Duration) *poller.Task {
	return poller.Start(ctx, interval, r.poll, poller.OnSkip(func() {
		r.diag.Debugf("history poll skipped: previous query still running")
	}))
}

func (r *Recorder) poll(ctx context.Context) {
	snap := r.observer.Observe(ctx)
	if ctx.Err() != nil {
		return
	}
	written, err := r.store.Record(ctx, snap)
	if err != nil {
		r.diag.Warnf("record status: %v", err)
	} else if written {
		r.diag.Infof("status transition: running=%t login=%s", snap.Running, snap.Login.Kind())
	}

	now := time.Now()
	if now.Sub(r.lastCleanup) >= cleanupEvery {
		r.lastCleanup = now
		removed, err := database.Cleanup(r.db, r.retention)
		if err != nil {
			r.diag.Warnf("history cleanup: %v", err)
		} else if removed > 0 {
			r.diag.Debugf("history cleanup removed %d rows", removed)
		}
	}
}
