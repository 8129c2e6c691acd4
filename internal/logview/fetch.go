package logview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tailscale-webui/internal/runner"
)

// DefaultLogread is the OpenWrt syslog reader.
const DefaultLogread = "/sbin/logread"

// DefaultTag is the syslog filter passed to logread -e.
const DefaultTag = "tailscale"

// ErrLogread is returned when logread exits non-zero. The wrapped message
// carries its stdout and stderr.
var ErrLogread = errors.New("logread failed")

// Fetcher reads the daemon's log lines.
type Fetcher struct {
	bin    string
	tag    string
	runner runner.Runner
}

// NewFetcher creates a fetcher. Empty bin or tag fall back to defaults.
func NewFetcher(bin, tag string, r runner.Runner) *Fetcher {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultLogread
	}
	if strings.TrimSpace(tag) == "" {
		tag = DefaultTag
	}
	return &Fetcher{bin: bin, tag: tag, runner: r}
}

// Fetch runs logread and parses its output.
func (f *Fetcher) Fetch(ctx context.Context) ([]Entry, error) {
	res, err := f.runner.Run(ctx, f.bin, "-e", f.tag)
	if err != nil {
		return nil, fmt.Errorf("run logread: %w", err)
	}
	if !res.OK() {
		return nil, fmt.Errorf("%w: %s %s", ErrLogread, res.Stdout, res.Stderr)
	}
	return Parse(res.Stdout), nil
}
