// Package tailscale wraps the tailscale CLI subcommands the panel needs.
package tailscale

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tailscale-webui/internal/runner"
)

// DefaultBinary is where OpenWrt packages install the CLI.
const DefaultBinary = "/usr/sbin/tailscale"

// Client runs the tailscale CLI.
type Client struct {
	bin    string
	runner runner.Runner
}

// NewClient creates a client for the binary at bin.
func NewClient(bin string, r runner.Runner) *Client {
	if strings.TrimSpace(bin) == "" {
		bin = DefaultBinary
	}
	return &Client{bin: bin, runner: r}
}

// Status runs `tailscale status --json`. The exit code is ignored as long as
// stdout carries a status document; the CLI exits non-zero while stopped.
func (c *Client) Status(ctx context.Context) (Status, error) {
	res, err := c.runner.Run(ctx, c.bin, "status", "--json")
	if err != nil {
		return Status{}, fmt.Errorf("tailscale status: %w", err)
	}
	if strings.TrimSpace(res.Stdout) == "" {
		return Status{}, fmt.Errorf("tailscale status: exit %d: %s", res.Code, res.Combined())
	}
	return ParseStatus([]byte(res.Stdout))
}

// StatusText runs plain `tailscale status` and returns its output.
func (c *Client) StatusText(ctx context.Context) (string, error) {
	res, err := c.runner.Run(ctx, c.bin, "status")
	if err != nil {
		return "", fmt.Errorf("tailscale status: %w", err)
	}
	if !res.OK() {
		return "", fmt.Errorf("tailscale status: exit %d: %s", res.Code, res.Combined())
	}
	return res.Stdout, nil
}

// Login starts `tailscale login` without waiting for it.
func (c *Client) Login() error {
	if err := c.runner.Start(c.bin, "login"); err != nil {
		return fmt.Errorf("tailscale login: %w", err)
	}
	return nil
}

// ErrLogoutFailed wraps a non-zero logout exit.
var ErrLogoutFailed = errors.New("tailscale logout failed")

// Logout runs `tailscale logout` and waits for it.
func (c *Client) Logout(ctx context.Context) error {
	res, err := c.runner.Run(ctx, c.bin, "logout")
	if err != nil {
		return fmt.Errorf("tailscale logout: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("%w: exit %d: %s", ErrLogoutFailed, res.Code, res.Combined())
	}
	return nil
}
