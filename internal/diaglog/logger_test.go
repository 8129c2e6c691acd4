package diaglog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	return string(content)
}

func TestManagerWritesWhenEnabledAndLevelMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag", "diagnostics.log")
	logger := New(path)
	defer logger.Close()

	if err := logger.Configure(true, "debug"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	logger.Debugf("poll tick %d skipped", 3)
	logger.Infof("login triggered")

	text := readLog(t, path)
	if !strings.Contains(text, "[DEBUG] poll tick 3 skipped") {
		t.Fatalf("expected debug line in log: %q", text)
	}
	if !strings.Contains(text, "[INFO] login triggered") {
		t.Fatalf("expected info line in log: %q", text)
	}
}

func TestManagerCommandLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagnostics.log")
	logger := New(path)
	defer logger.Close()

	if err := logger.Configure(true, "info"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	logger.Command([]string{"tailscale", "status", "--json"}, 0, nil)
	logger.Command([]string{"logread", "-e", "tailscale"}, 1, nil)
	logger.Command([]string{"ubus", "call"}, -1, errors.New("not found"))

	text := readLog(t, path)
	if strings.Contains(text, "tailscale status") {
		t.Fatalf("clean exit should be debug-only: %q", text)
	}
	if !strings.Contains(text, `[INFO] exec "logread -e tailscale" exited 1`) {
		t.Fatalf("expected non-zero exit line: %q", text)
	}
	if !strings.Contains(text, `[WARN] exec "ubus call" failed: not found`) {
		t.Fatalf("expected launch failure line: %q", text)
	}
}

func TestManagerDisableStopsWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagnostics.log")
	logger := New(path)
	defer logger.Close()

	if err := logger.Configure(true, "debug"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	logger.Infof("before disable")
	if err := logger.Configure(false, "debug"); err != nil {
		t.Fatalf("Configure disable failed: %v", err)
	}
	logger.Errorf("after disable")

	text := readLog(t, path)
	if !strings.Contains(text, "before disable") || strings.Contains(text, "after disable") {
		t.Fatalf("unexpected log content: %q", text)
	}
	if logger.Enabled() {
		t.Fatalf("expected logger to report disabled")
	}
}

func TestNilManagerIsNoop(t *testing.T) {
	var logger *Manager
	logger.Infof("ignored")
	logger.Command([]string{"true"}, 0, nil)
	if logger.Enabled() {
		t.Fatalf("nil manager must not be enabled")
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close on nil manager: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"WARNING": LevelWarn,
		" error ": LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
