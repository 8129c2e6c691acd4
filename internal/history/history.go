// Package history persists status transitions and panel actions.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"tailscale-webui/internal/status"
)

// DefaultLimit caps reads when the caller gives no limit.
const DefaultLimit = 100

const maxLimit = 1000

// Event is one recorded status transition.
type Event struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Running      bool      `json:"running"`
	LoginState   string    `json:"loginState"`
	BackendState string    `json:"backendState"`
	DisplayName  string    `json:"displayName,omitempty"`
}

// Action is one recorded panel action such as a logout or a config apply.
type Action struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type key struct {
	running      bool
	loginState   string
	backendState string
	displayName  string
}

// Store writes history rows to the database opened by internal/database.
type Store struct {
	db *sql.DB

	mu     sync.Mutex
	last   key
	loaded bool
}

// NewStore wraps db.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}
	return &Store{db: db}, nil
}

func keyOf(snap status.Snapshot) key {
	name, _ := snap.Login.DisplayName()
	return key{
		running:      snap.Running,
		loginState:   snap.Login.Kind().String(),
		backendState: snap.Login.BackendState(),
		displayName:  name,
	}
}

// Record stores snap when it differs from the last recorded event. It
// reports whether a row was written.
func (s *Store) Record(ctx context.Context, snap status.Snapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		last, ok, err := s.latestLocked(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			s.last = key{last.Running, last.LoginState, last.BackendState, last.DisplayName}
		}
		s.loaded = true
		if ok && s.last == keyOf(snap) {
			return false, nil
		}
	} else if s.last == keyOf(snap) {
		return false, nil
	}

	k := keyOf(snap)
	ts := snap.CheckedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO status_events (timestamp, running, login_state, backend_state, display_name)
		VALUES (?, ?, ?, ?, ?)
	`, ts.Unix(), boolInt(k.running), k.loginState, k.backendState, k.displayName)
	if err != nil {
		return false, fmt.Errorf("insert status event: %w", err)
	}
	s.last = k
	return true, nil
}

func (s *Store) latestLocked(ctx context.Context) (Event, bool, error) {
	events, err := s.Recent(ctx, 1)
	if err != nil {
		return Event{}, false, err
	}
	if len(events) == 0 {
		return Event{}, false, nil
	}
	return events[0], true, nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, running, login_state, backend_state, display_name
		FROM status_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query status events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			ev      Event
			ts      int64
			running int
		)
		if err := rows.Scan(&ev.ID, &ts, &running, &ev.LoginState, &ev.BackendState, &ev.DisplayName); err != nil {
			return nil, err
		}
		ev.Timestamp = time.Unix(ts, 0).UTC()
		ev.Running = running != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecordAction stores a panel action and its outcome.
func (s *Store) RecordAction(ctx context.Context, action, detail string, actionErr error) error {
	var errText sql.NullString
	if actionErr != nil {
		errText = sql.NullString{String: actionErr.Error(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO panel_actions (timestamp, action, detail, error)
		VALUES (?, ?, ?, ?)
	`, time.Now().UTC().Unix(), action, detail, errText)
	if err != nil {
		return fmt.Errorf("insert panel action: %w", err)
	}
	return nil
}

// Actions returns up to limit panel actions, newest first.
func (s *Store) Actions(ctx context.Context, limit int) ([]Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, action, detail, error
		FROM panel_actions
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query panel actions: %w", err)
	}
	defer rows.Close()

	actions := make([]Action, 0)
	for rows.Next() {
		var (
			a       Action
			ts      int64
			errText sql.NullString
		)
		if err := rows.Scan(&a.ID, &ts, &a.Action, &a.Detail, &errText); err != nil {
			return nil, err
		}
		a.Timestamp = time.Unix(ts, 0).UTC()
		a.Error = errText.String
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
