// Package appconfig loads the panel's own runtime configuration from YAML.
// Daemon settings are not kept here; they live in UCI.
package appconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the packaged panel looks for its config.
const DefaultPath = "/etc/tailscale-webui/config.yaml"

// Service manager backends.
const (
	BackendUbus    = "ubus"
	BackendSystemd = "systemd"
)

// Config is the panel runtime configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// DataDir holds settings.json, the history database and diagnostics.
	DataDir string `yaml:"data_dir"`

	TailscaleBin string `yaml:"tailscale_bin"`
	LogreadBin   string `yaml:"logread_bin"`
	LogTag       string `yaml:"log_tag"`
	UCIBin       string `yaml:"uci_bin"`
	UbusBin      string `yaml:"ubus_bin"`
	InitDir      string `yaml:"initd_dir"`

	// Service and Instance name the supervised daemon.
	Service  string `yaml:"service"`
	Instance string `yaml:"instance"`
	// Backend selects how the daemon is queried and controlled.
	Backend string `yaml:"backend"`

	UCIPackage string `yaml:"uci_package"`
	UCISection string `yaml:"uci_section"`

	// PollInterval drives each open view.
	PollInterval time.Duration `yaml:"poll_interval"`
	// HistoryInterval drives the background status recorder. Zero disables it.
	HistoryInterval  time.Duration `yaml:"history_interval"`
	HistoryRetention time.Duration `yaml:"history_retention"`

	// Systemd marks the panel itself as running under systemd.
	Systemd bool `yaml:"systemd"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		Listen:           ":8092",
		DataDir:          "/etc/tailscale-webui",
		TailscaleBin:     "/usr/sbin/tailscale",
		LogreadBin:       "/sbin/logread",
		LogTag:           "tailscale",
		UCIBin:           "uci",
		UbusBin:          "ubus",
		InitDir:          "/etc/init.d",
		Service:          "tailscale",
		Instance:         "instance1",
		Backend:          BackendUbus,
		UCIPackage:       "tailscale",
		UCISection:       "settings",
		PollInterval:     5 * time.Second,
		HistoryInterval:  30 * time.Second,
		HistoryRetention: 7 * 24 * time.Hour,
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read configuration: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks values a file or flag may have set.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("listen address is required")
	}
	if !filepath.IsAbs(c.DataDir) {
		return fmt.Errorf("data_dir must be absolute: %q", c.DataDir)
	}
	switch c.Backend {
	case BackendUbus, BackendSystemd:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendUbus, BackendSystemd, c.Backend)
	}
	if strings.TrimSpace(c.Service) == "" {
		return errors.New("service name is required")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.HistoryInterval < 0 || c.HistoryRetention < 0 {
		return errors.New("history durations must not be negative")
	}
	return nil
}

// Save writes the configuration to path.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("serialize configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	return nil
}

func (c Config) SettingsPath() string { return filepath.Join(c.DataDir, "settings.json") }
func (c Config) DatabasePath() string { return filepath.Join(c.DataDir, "history.db") }
func (c Config) DiagLogPath() string  { return filepath.Join(c.DataDir, "diagnostics.log") }
