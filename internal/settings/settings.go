// Package settings persists panel preferences and credentials as JSON.
package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Settings captures panel preferences and auth credentials persisted across restarts.
// Daemon configuration is not stored here; it lives in UCI.
type Settings struct {
	// Network
	ListenInterface string `json:"listenInterface"`
	// Diagnostics
	DebugLogEnabled *bool  `json:"debugLogEnabled,omitempty"`
	DebugLogLevel   string `json:"debugLogLevel,omitempty"`
	// Views
	ReverseLogs bool `json:"reverseLogs,omitempty"`

	// Auth is stored as a bcrypt hash and a random token. Handlers scrub
	// both before returning settings to clients.
	AuthPasswordHash string `json:"authPasswordHash,omitempty"`
	AuthToken        string `json:"authToken,omitempty"`
}

// DebugEnabled reports the effective debug log switch.
func (s Settings) DebugEnabled() bool {
	return s.DebugLogEnabled != nil && *s.DebugLogEnabled
}

// Public returns a copy without credentials.
func (s Settings) Public() Settings {
	s.AuthPasswordHash = ""
	s.AuthToken = ""
	return s
}

// ErrInvalidLevel is returned for an unknown debug log level.
var ErrInvalidLevel = errors.New("debug log level must be debug, info, warn or error")

// Validate normalises user-editable fields.
func (s Settings) Validate() (Settings, error) {
	s.ListenInterface = strings.TrimSpace(s.ListenInterface)
	level := strings.ToLower(strings.TrimSpace(s.DebugLogLevel))
	switch level {
	case "":
		level = "info"
	case "debug", "info", "warn", "error":
	case "warning":
		level = "warn"
	default:
		return s, ErrInvalidLevel
	}
	s.DebugLogLevel = level
	return s, nil
}

// Manager handles persistence of Settings on disk.
type Manager struct {
	path   string
	mu     sync.RWMutex
	cached Settings
	loaded bool
}

// NewManager creates a settings manager whose file is at settingsPath.
// Pass the full file path (e.g. "/etc/tailscale-webui/settings.json").
func NewManager(settingsPath string) *Manager {
	return &Manager{path: settingsPath}
}

// Path returns the backing file.
func (m *Manager) Path() string { return m.path }

// Get returns the cached settings, loading from disk if necessary.
func (m *Manager) Get() (Settings, error) {
	m.mu.RLock()
	if m.loaded {
		defer m.mu.RUnlock()
		return m.cached, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return m.cached, nil
	}

	bytes, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.loaded = true
			m.cached = Settings{}
			return m.cached, nil
		}
		return Settings{}, err
	}

	var settings Settings
	if err := json.Unmarshal(bytes, &settings); err != nil {
		return Settings{}, err
	}
	m.cached = settings
	m.loaded = true
	return settings, nil
}

// Save persists the provided settings to disk.
func (m *Manager) Save(settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return err
	}
	m.cached = settings
	m.loaded = true
	return nil
}

// Update applies fn to the current settings and saves the result.
func (m *Manager) Update(fn func(*Settings) error) (Settings, error) {
	current, err := m.Get()
	if err != nil {
		return Settings{}, err
	}
	if err := fn(&current); err != nil {
		return Settings{}, err
	}
	if err := m.Save(current); err != nil {
		return Settings{}, err
	}
	return current, nil
}
