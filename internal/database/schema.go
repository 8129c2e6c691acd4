package database

// schema contains all table definitions. Each statement is idempotent (CREATE IF NOT EXISTS).
const schema = `
CREATE TABLE IF NOT EXISTS status_events (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp     INTEGER NOT NULL,
    running       INTEGER NOT NULL DEFAULT 0,
    login_state   TEXT    NOT NULL DEFAULT 'Unknown',
    backend_state TEXT    NOT NULL DEFAULT '',
    display_name  TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_status_events_ts
    ON status_events (timestamp);

CREATE TABLE IF NOT EXISTS panel_actions (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,
    action    TEXT    NOT NULL,
    detail    TEXT    NOT NULL DEFAULT '',
    error     TEXT
);
CREATE INDEX IF NOT EXISTS idx_panel_actions_ts
    ON panel_actions (timestamp);
`
