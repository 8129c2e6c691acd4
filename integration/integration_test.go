//go:build integration

package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestIntegrationPanelAgainstLocalDaemon(t *testing.T) {
	if os.Getenv("TSWEBUI_RUN_INTEGRATION") != "1" {
		t.Skip("set TSWEBUI_RUN_INTEGRATION=1 to run integration tests")
	}
	tailscaleBin, err := exec.LookPath("tailscale")
	if err != nil {
		t.Skip("tailscale CLI not installed")
	}

	binaryPath := strings.TrimSpace(os.Getenv("TSWEBUI_BIN"))
	if binaryPath == "" {
		binaryPath = filepath.Clean("./tailscale-webui")
	}
	if _, err := os.Stat(binaryPath); err != nil {
		t.Fatalf("tailscale-webui binary not found at %s: %v", binaryPath, err)
	}
	backend := strings.TrimSpace(os.Getenv("TSWEBUI_BACKEND"))
	if backend == "" {
		backend = "ubus"
	}

	addr, err := freeLocalAddr()
	if err != nil {
		t.Fatalf("failed to choose listen address: %v", err)
	}
	baseURL := "http://" + addr
	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "config.yaml")
	config := fmt.Sprintf("listen: %q\ndata_dir: %q\ntailscale_bin: %q\nbackend: %q\npoll_interval: 1s\n",
		addr, dataDir, tailscaleBin, backend)
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "--config", configPath, "serve")
	var logs bytes.Buffer
	cmd.Stdout = &logs
	cmd.Stderr = &logs
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start tailscale-webui: %v", err)
	}
	defer func() {
		cancel()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		if t.Failed() {
			t.Logf("server logs:\n%s", logs.String())
		}
	}()

	if err := waitForHTTP(baseURL+"/login", 20*time.Second); err != nil {
		t.Fatalf("server did not become ready: %v", err)
	}

	client, err := authenticatedClient(baseURL)
	if err != nil {
		t.Fatalf("failed to authenticate test client: %v", err)
	}

	var snap struct {
		Running bool `json:"running"`
		Login   struct {
			State string `json:"state"`
		} `json:"login"`
		StatusHTML string `json:"statusHtml"`
	}
	if err := getJSON(client, baseURL+"/api/status", &snap); err != nil {
		t.Fatalf("status: %v", err)
	}
	if snap.StatusHTML == "" || snap.Login.State == "" {
		t.Fatalf("incomplete status payload: %+v", snap)
	}

	var cfg map[string]any
	if err := getJSON(client, baseURL+"/api/config", &cfg); err != nil {
		t.Fatalf("config: %v", err)
	}

	resp, err := client.Post(baseURL+"/api/logout", "application/json", strings.NewReader(`{"token":"nope"}`))
	if err != nil {
		t.Fatalf("logout request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected unconfirmed logout to be refused, got %d", resp.StatusCode)
	}

	if err := firstStreamEvent(client, baseURL+"/api/status/stream", "status", 10*time.Second); err != nil {
		t.Fatalf("status stream: %v", err)
	}
}

func authenticatedClient(baseURL string) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 10 * time.Second, Jar: jar}

	resp, err := client.PostForm(baseURL+"/login", url.Values{"password": {"tailscale"}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed with status %d", resp.StatusCode)
	}
	return client, nil
}

func getJSON(client *http.Client, endpoint string, out any) error {
	resp, err := client.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func firstStreamEvent(client *http.Client, endpoint, event string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	streaming := &http.Client{Jar: client.Jar}
	resp, err := streaming.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if scanner.Text() == "event: "+event {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("stream ended before %q event", event)
}

func waitForHTTP(endpoint string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(endpoint)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %s", endpoint)
}

func freeLocalAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}
