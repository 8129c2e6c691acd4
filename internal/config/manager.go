package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tailscale-webui/internal/uci"
)

const (
	DefaultPackage = "tailscale"
	DefaultSection = "settings"
	sectionType    = "config"
)

// Manager loads and saves the daemon configuration through a uci.Store.
// Nothing is cached between calls.
type Manager struct {
	store   uci.Store
	pkg     string
	section string
}

// NewManager creates a manager for pkg.section. Empty names fall back to
// tailscale.settings.
func NewManager(store uci.Store, pkg, section string) *Manager {
	if strings.TrimSpace(pkg) == "" {
		pkg = DefaultPackage
	}
	if strings.TrimSpace(section) == "" {
		section = DefaultSection
	}
	return &Manager{store: store, pkg: pkg, section: section}
}

// Load returns the stored record with defaults for missing options.
func (m *Manager) Load(ctx context.Context) (Record, error) {
	pkg, err := m.store.Load(ctx, m.pkg)
	if err != nil {
		return Record{}, fmt.Errorf("load %s: %w", m.pkg, err)
	}
	sec, ok := pkg.Section(m.section)
	if !ok {
		return Defaults(), nil
	}
	return FromSection(sec), nil
}

// Save validates rec and persists it. The normalized record is returned.
func (m *Manager) Save(ctx context.Context, rec Record) (Record, error) {
	normalized, err := rec.Normalize()
	if err != nil {
		return Record{}, err
	}
	sec := ToSection(m.section, normalized)
	if err := m.store.SaveSection(ctx, m.pkg, sec); err != nil {
		return Record{}, fmt.Errorf("save %s.%s: %w", m.pkg, m.section, err)
	}
	return normalized, nil
}

// FromSection decodes a UCI section, applying defaults.
func FromSection(sec uci.Section) Record {
	rec := Defaults()
	str := func(name string, fallback string) string {
		if opt, ok := sec.Get(name); ok {
			return opt.Value()
		}
		return fallback
	}
	flag := func(name string, fallback bool) bool {
		if opt, ok := sec.Get(name); ok {
			return parseBool(opt.Value(), fallback)
		}
		return fallback
	}

	rec.Enabled = flag("enabled", rec.Enabled)
	rec.Port = parsePort(str("port", ""), rec.Port)
	rec.ConfigPath = str("config_path", rec.ConfigPath)
	rec.FirewallMode = str("fw_mode", rec.FirewallMode)
	rec.LogStdout = flag("log_stdout", rec.LogStdout)
	rec.LogStderr = flag("log_stderr", rec.LogStderr)
	rec.AcceptRoutes = flag("acceptRoutes", rec.AcceptRoutes)
	rec.Hostname = str("hostname", rec.Hostname)
	rec.AcceptDNS = flag("acceptDNS", rec.AcceptDNS)
	rec.AdvertiseExitNode = flag("advertiseExitNode", rec.AdvertiseExitNode)
	rec.AdvertiseRoutes = str("advertiseRoutes", rec.AdvertiseRoutes)
	rec.SiteToSite = flag("s2s", rec.SiteToSite)
	if opt, ok := sec.Get("access"); ok {
		// stored either as a list or as a single space separated option
		access := make([]string, 0, len(opt.Values))
		for _, v := range opt.Values {
			access = append(access, strings.Fields(v)...)
		}
		rec.Access = access
	}
	if opt, ok := sec.Get("flags"); ok {
		rec.Flags = append([]string{}, opt.Values...)
	}
	rec.LoginServer = str("loginServer", rec.LoginServer)
	rec.AuthKey = str("authKey", rec.AuthKey)
	return rec
}

// ToSection encodes rec. Empty optional values become deletions so the
// store mirrors the form's remove-when-empty behaviour.
func ToSection(name string, rec Record) uci.Section {
	opts := map[string]uci.Option{
		"enabled":           single(formatBool(rec.Enabled)),
		"port":              single(strconv.Itoa(rec.Port)),
		"config_path":       single(rec.ConfigPath),
		"fw_mode":           single(rec.FirewallMode),
		"log_stdout":        single(formatBool(rec.LogStdout)),
		"log_stderr":        single(formatBool(rec.LogStderr)),
		"acceptRoutes":      single(formatBool(rec.AcceptRoutes)),
		"hostname":          single(rec.Hostname),
		"acceptDNS":         single(formatBool(rec.AcceptDNS)),
		"advertiseExitNode": single(formatBool(rec.AdvertiseExitNode)),
		"access":            {Values: append([]string(nil), rec.Access...), List: true},
		"flags":             {Values: append([]string(nil), rec.Flags...), List: true},
		"loginServer":       single(rec.LoginServer),
		"authKey":           single(rec.AuthKey),
		"advertiseRoutes":   {},
		"s2s":               {},
	}
	if rec.AcceptRoutes {
		opts["advertiseRoutes"] = single(rec.AdvertiseRoutes)
		opts["s2s"] = single(formatBool(rec.SiteToSite))
	}
	return uci.Section{Name: name, Type: sectionType, Options: opts}
}

func single(v string) uci.Option {
	if v == "" {
		return uci.Option{}
	}
	return uci.Option{Values: []string{v}}
}
