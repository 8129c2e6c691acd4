// Package diaglog writes optional leveled diagnostics to a file on the
// router's persistent storage.
package diaglog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level controls diagnostic log verbosity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Manager appends diagnostics to path while enabled. A nil *Manager is a
// valid no-op logger.
type Manager struct {
	path    string
	mu      sync.Mutex
	enabled bool
	level   Level
	file    *os.File
	now     func() time.Time
}

// New creates a diagnostics logger writing to path when enabled.
func New(path string) *Manager {
	return &Manager{
		path:  strings.TrimSpace(path),
		level: LevelInfo,
		now:   time.Now,
	}
}

// Configure updates runtime logging controls.
func (m *Manager) Configure(enabled bool, levelRaw string) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.level = ParseLevel(levelRaw)
	m.enabled = enabled
	if !enabled {
		m.closeLocked()
		return nil
	}
	return m.openLocked()
}

// Close releases the log file.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

// Enabled reports whether diagnostics are being written.
func (m *Manager) Enabled() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

func (m *Manager) Debugf(format string, args ...any) { m.logf(LevelDebug, format, args...) }
func (m *Manager) Infof(format string, args ...any)  { m.logf(LevelInfo, format, args...) }
func (m *Manager) Warnf(format string, args ...any)  { m.logf(LevelWarn, format, args...) }
func (m *Manager) Errorf(format string, args ...any) { m.logf(LevelError, format, args...) }

// Command records an external command invocation. Failures to launch are
// logged at warn, non-zero exits at info and clean exits at debug.
func (m *Manager) Command(argv []string, code int, err error) {
	line := strings.Join(argv, " ")
	switch {
	case err != nil:
		m.Warnf("exec %q failed: %v", line, err)
	case code != 0:
		m.Infof("exec %q exited %d", line, code)
	default:
		m.Debugf("exec %q ok", line)
	}
}

func (m *Manager) logf(level Level, format string, args ...any) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled || level < m.level {
		return
	}
	if err := m.openLocked(); err != nil || m.file == nil {
		return
	}
	_, _ = fmt.Fprintf(m.file, "%s [%s] %s\n",
		m.now().UTC().Format(time.RFC3339),
		level,
		fmt.Sprintf(format, args...),
	)
}

func (m *Manager) openLocked() error {
	if m.path == "" || m.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	m.file = file
	return nil
}

func (m *Manager) closeLocked() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// ParseLevel maps a settings value onto a Level, defaulting to info.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
