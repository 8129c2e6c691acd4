// Package config maps the tailscale UCI section onto a typed record with
// defaults and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrValidation marks a record rejected by Validate.
var ErrValidation = errors.New("invalid tailscale configuration")

// Firewall backends accepted by fw_mode.
const (
	FirewallNftables = "nftables"
	FirewallIptables = "iptables"
)

// Access control zones accepted by the access option.
const (
	AccessTailscaleToLAN = "tsfwlan"
	AccessTailscaleToWAN = "tsfwwan"
	AccessLANToTailscale = "lanfwts"
	AccessWANToTailscale = "wanfwts"
)

// AccessChoices lists the access values in form order with their labels.
var AccessChoices = []struct {
	Value string `json:"value"`
	Label string `json:"label"`
}{
	{AccessTailscaleToLAN, "Tailscale access LAN"},
	{AccessTailscaleToWAN, "Tailscale access WAN"},
	{AccessLANToTailscale, "LAN access Tailscale"},
	{AccessWANToTailscale, "WAN access Tailscale"},
}

// Record is the persisted daemon configuration.
type Record struct {
	// Basic
	Enabled      bool   `json:"enabled"`
	Port         int    `json:"port"`
	ConfigPath   string `json:"configPath"`
	FirewallMode string `json:"fwMode"`
	LogStdout    bool   `json:"logStdout"`
	LogStderr    bool   `json:"logStderr"`
	// Advanced
	AcceptRoutes      bool     `json:"acceptRoutes"`
	Hostname          string   `json:"hostname"`
	AcceptDNS         bool     `json:"acceptDNS"`
	AdvertiseExitNode bool     `json:"advertiseExitNode"`
	AdvertiseRoutes   string   `json:"advertiseRoutes"`
	SiteToSite        bool     `json:"s2s"`
	Access            []string `json:"access"`
	// Extra
	Flags []string `json:"flags"`
	// Custom server
	LoginServer string `json:"loginServer"`
	AuthKey     string `json:"authKey"`
}

// Defaults returns the values used for options missing from the store.
func Defaults() Record {
	return Record{
		Enabled:      false,
		Port:         41641,
		ConfigPath:   "/etc/tailscale",
		FirewallMode: FirewallNftables,
		LogStdout:    true,
		LogStderr:    true,
		AcceptDNS:    true,
		Access:       []string{AccessTailscaleToLAN, AccessTailscaleToWAN, AccessLANToTailscale},
		Flags:        []string{},
	}
}

// Normalize trims fields, canonicalises advertised routes and applies the
// acceptRoutes dependency. It returns ErrValidation wrapped with the first
// problem found.
func (r Record) Normalize() (Record, error) {
	out := r
	out.ConfigPath = strings.TrimSpace(r.ConfigPath)
	out.FirewallMode = strings.ToLower(strings.TrimSpace(r.FirewallMode))
	out.Hostname = strings.TrimSpace(r.Hostname)
	out.LoginServer = strings.TrimSpace(r.LoginServer)
	out.AuthKey = strings.TrimSpace(r.AuthKey)

	if out.Port < 0 || out.Port > 65535 {
		return Record{}, fmt.Errorf("%w: port %d out of range", ErrValidation, out.Port)
	}
	if out.ConfigPath == "" || !filepath.IsAbs(out.ConfigPath) {
		return Record{}, fmt.Errorf("%w: workdir must be an absolute path", ErrValidation)
	}
	out.ConfigPath = filepath.Clean(out.ConfigPath)
	switch out.FirewallMode {
	case FirewallNftables, FirewallIptables:
	default:
		return Record{}, fmt.Errorf("%w: unsupported firewall mode %q", ErrValidation, r.FirewallMode)
	}

	access, err := normalizeAccess(r.Access)
	if err != nil {
		return Record{}, err
	}
	out.Access = access

	flags := make([]string, 0, len(r.Flags))
	for _, flag := range r.Flags {
		trimmed := strings.TrimSpace(flag)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "--") || len(trimmed) == 2 {
			return Record{}, fmt.Errorf("%w: flag %q must look like --name=value", ErrValidation, trimmed)
		}
		flags = append(flags, trimmed)
	}
	out.Flags = flags

	if !out.AcceptRoutes {
		out.AdvertiseRoutes = ""
		out.SiteToSite = false
		return out, nil
	}
	routes, err := NormalizeRoutes(r.AdvertiseRoutes)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	out.AdvertiseRoutes = strings.Join(routes, ",")
	return out, nil
}

func normalizeAccess(values []string) ([]string, error) {
	seen := make(map[string]bool, len(values))
	for _, raw := range values {
		for _, v := range strings.Fields(raw) {
			seen[strings.ToLower(v)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for _, choice := range AccessChoices {
		if seen[choice.Value] {
			out = append(out, choice.Value)
			delete(seen, choice.Value)
		}
	}
	if len(seen) > 0 {
		unknown := make([]string, 0, len(seen))
		for v := range seen {
			unknown = append(unknown, v)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown access value %q", ErrValidation, unknown[0])
	}
	return out, nil
}

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func parseBool(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on", "enabled":
		return true
	case "0", "false", "no", "off", "disabled":
		return false
	default:
		return fallback
	}
}

func parsePort(raw string, fallback int) int {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return port
}
