// Package version reports build metadata injected at link time.
package version

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Name is the program name shown in version strings.
const Name = "tailscale-webui"

// Build-time metadata injected via -ldflags, for example
// -X tailscale-webui/internal/version.AppVersion=v1.0.0.
var (
	AppVersion = "dev"
	GitCommit  = "unknown"
	BuildTime  = "unknown"
)

// Info describes the running binary build metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
}

// Current returns the build metadata for this binary.
func Current() Info {
	return Info{
		Version:   orDefault(AppVersion, "dev"),
		Commit:    orDefault(GitCommit, "unknown"),
		BuildTime: orDefault(BuildTime, "unknown"),
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", Name,
		orDefault(i.Version, "dev"), orDefault(i.Commit, "unknown"), orDefault(i.BuildTime, "unknown"))
}

// JSON returns the metadata encoded as JSON.
func (i Info) JSON() ([]byte, error) {
	return json.Marshal(i)
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
