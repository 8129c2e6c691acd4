package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tailscale-webui/internal/database"
	"tailscale-webui/internal/runner"
	"tailscale-webui/internal/service"
	"tailscale-webui/internal/status"
	"tailscale-webui/internal/tailscale"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func snap(running bool, login tailscale.LoginState, at int64) status.Snapshot {
	return status.Snapshot{Running: running, Login: login, CheckedAt: time.Unix(at, 0).UTC()}
}

func TestRecordOnlyTransitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	steps := []struct {
		snap status.Snapshot
		want bool
	}{
		{snap(false, tailscale.Unknown(""), 1), true},
		{snap(false, tailscale.Unknown(""), 2), false},
		{snap(true, tailscale.NeedsLogin(""), 3), true},
		{snap(true, tailscale.NeedsLogin("https://x"), 4), false},
		{snap(true, tailscale.LoggedIn("alice"), 5), true},
		{snap(true, tailscale.LoggedIn("alice"), 6), false},
	}
	for i, step := range steps {
		written, err := store.Record(ctx, step.snap)
		if err != nil {
			t.Fatalf("step %d: Record: %v", i, err)
		}
		if written != step.want {
			t.Fatalf("step %d: written=%v, want %v", i, written, step.want)
		}
	}

	events, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].DisplayName != "alice" || events[0].LoginState != "Running" || !events[0].Running {
		t.Fatalf("unexpected newest event %+v", events[0])
	}
	if events[2].Running || events[2].LoginState != "Unknown" {
		t.Fatalf("unexpected oldest event %+v", events[2])
	}
}

func TestRecordResumesFromDatabase(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	first, _ := NewStore(db)
	if _, err := first.Record(ctx, snap(true, tailscale.LoggedIn("bob"), 1)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second, _ := NewStore(db)
	written, err := second.Record(ctx, snap(true, tailscale.LoggedIn("bob"), 2))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if written {
		t.Fatalf("unchanged state should not be recorded after restart")
	}
}

func TestActions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.RecordAction(ctx, "logout", "", nil); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}
	if err := store.RecordAction(ctx, "apply", "enabled=1", errors.New("restart failed")); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}
	actions, err := store.Actions(ctx, 10)
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	if actions[0].Action != "apply" || actions[0].Error != "restart failed" {
		t.Fatalf("unexpected newest action %+v", actions[0])
	}
	if actions[1].Error != "" {
		t.Fatalf("unexpected error on logout action: %q", actions[1].Error)
	}
}

type stubObserver struct {
	mu    sync.Mutex
	snaps []status.Snapshot
}

func (s *stubObserver) Observe(context.Context) status.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snaps) == 1 {
		return s.snaps[0]
	}
	next := s.snaps[0]
	s.snaps = s.snaps[1:]
	return next
}

func TestRecorderWritesTransitions(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	store, _ := NewStore(db)
	now := time.Now().Unix()
	q := &stubObserver{snaps: []status.Snapshot{
		snap(false, tailscale.Unknown(""), now),
		snap(true, tailscale.LoggedIn("alice"), now),
	}}

	task := NewRecorder(store, db, q, time.Hour, nil).Start(context.Background(), 2*time.Millisecond)
	defer task.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events, err := store.Recent(context.Background(), 10)
		if err == nil && len(events) == 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("recorder did not record both transitions")
}

type runningService struct{}

func (runningService) Lookup(context.Context, string, string) (service.RunState, error) {
	return service.RunState{Found: true, Running: true}, nil
}

func TestRecorderDoesNotStartLogin(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	store, _ := NewStore(db)

	m := &runner.MockRunner{}
	m.Set("tailscale status --json", runner.Result{Stdout: `{"BackendState":"NeedsLogin"}`})
	q := status.NewQuerier(runningService{}, tailscale.NewClient("tailscale", m), "tailscale", "", nil)

	task := NewRecorder(store, db, q, time.Hour, nil).Start(context.Background(), 2*time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for task.Runs() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	task.Stop()

	if task.Runs() < 3 {
		t.Fatalf("recorder did not poll repeatedly")
	}
	if started := m.Started(); len(started) != 0 {
		t.Fatalf("background recorder started %v", started)
	}
	events, err := store.Recent(context.Background(), 10)
	if err != nil || len(events) != 1 {
		t.Fatalf("expected one NeedsLogin event, got %v %v", events, err)
	}
}
