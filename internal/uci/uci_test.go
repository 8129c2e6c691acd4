package uci

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"tailscale-webui/internal/runner"
)

const sampleShow = `tailscale.settings=config
tailscale.settings.enabled='1'
tailscale.settings.port='41641'
tailscale.settings.access='tsfwlan' 'tsfwwan' 'lanfwts'
tailscale.settings.hostname='it'\''s-router'
tailscale.settings.flags='--exit-node=10.0.0.1'
other.section.ignored='x'
`

func TestParseShow(t *testing.T) {
	pkg, err := ParseShow("tailscale", sampleShow)
	if err != nil {
		t.Fatalf("ParseShow failed: %v", err)
	}
	sec, ok := pkg.Section("settings")
	if !ok {
		t.Fatalf("settings section missing: %+v", pkg)
	}
	if sec.Type != "config" {
		t.Fatalf("unexpected section type %q", sec.Type)
	}
	if got := sec.Options["port"].Value(); got != "41641" {
		t.Fatalf("unexpected port %q", got)
	}
	access := sec.Options["access"]
	if !access.List || !reflect.DeepEqual(access.Values, []string{"tsfwlan", "tsfwwan", "lanfwts"}) {
		t.Fatalf("unexpected access option %+v", access)
	}
	if got := sec.Options["hostname"].Value(); got != "it's-router" {
		t.Fatalf("unexpected escaped hostname %q", got)
	}
	if _, ok := pkg.Section("section"); ok {
		t.Fatalf("lines from other packages must be ignored")
	}
}

func TestParseShowRejectsUnterminatedQuote(t *testing.T) {
	if _, err := ParseShow("tailscale", "tailscale.settings.port='41641\n"); err == nil {
		t.Fatalf("expected error for unterminated quote")
	}
}

func TestCLIStoreLoadMissingPackage(t *testing.T) {
	m := &runner.MockRunner{}
	m.Set("uci -q show tailscale", runner.Result{Code: 1})
	store := NewCLIStore("", m)
	pkg, err := store.Load(context.Background(), "tailscale")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(pkg.Sections) != 0 {
		t.Fatalf("expected empty package, got %+v", pkg)
	}
}

func TestCLIStoreLoadSurfacesUnexpectedFailure(t *testing.T) {
	m := &runner.MockRunner{}
	m.Set("uci -q show tailscale", runner.Result{Code: 2, Stderr: "permission denied"})
	store := NewCLIStore("uci", m)
	if _, err := store.Load(context.Background(), "tailscale"); err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestCLIStoreSaveSectionCommands(t *testing.T) {
	m := &runner.MockRunner{}
	for _, argv := range []string{
		"uci set tailscale.settings=config",
		"uci -q delete tailscale.settings.access",
		"uci add_list tailscale.settings.access=tsfwlan",
		"uci add_list tailscale.settings.access=lanfwts",
		"uci -q delete tailscale.settings.hostname",
		"uci set tailscale.settings.port=41641",
		"uci commit tailscale",
	} {
		m.Set(argv, runner.Result{})
	}
	store := NewCLIStore("uci", m)
	err := store.SaveSection(context.Background(), "tailscale", Section{
		Name: "settings",
		Type: "config",
		Options: map[string]Option{
			"port":     {Values: []string{"41641"}},
			"access":   {Values: []string{"tsfwlan", "lanfwts"}, List: true},
			"hostname": {},
		},
	})
	if err != nil {
		t.Fatalf("SaveSection failed: %v", err)
	}
	calls := m.Ran()
	if last := strings.Join(calls[len(calls)-1], " "); last != "uci commit tailscale" {
		t.Fatalf("expected commit last, got %q", last)
	}
	if len(calls) != 7 {
		t.Fatalf("expected 7 uci calls, got %d: %#v", len(calls), calls)
	}
}

func TestCLIStoreSaveSectionRevertsOnFailure(t *testing.T) {
	m := &runner.MockRunner{}
	m.Set("uci set tailscale.settings=config", runner.Result{})
	m.Set("uci -q delete tailscale.settings.access", runner.Result{})
	m.Set("uci add_list tailscale.settings.access=tsfwlan", runner.Result{})
	m.Set("uci add_list tailscale.settings.access=lanfwts", runner.Result{Code: 1, Stderr: "Invalid argument"})
	m.Set("uci revert tailscale", runner.Result{})
	store := NewCLIStore("uci", m)
	err := store.SaveSection(context.Background(), "tailscale", Section{
		Name: "settings",
		Type: "config",
		Options: map[string]Option{
			"access": {Values: []string{"tsfwlan", "lanfwts"}, List: true},
			"port":   {Values: []string{"41641"}},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "Invalid argument") {
		t.Fatalf("expected add_list failure, got %v", err)
	}
	calls := m.Ran()
	if last := strings.Join(calls[len(calls)-1], " "); last != "uci revert tailscale" {
		t.Fatalf("expected revert last, got %q", last)
	}
	for _, call := range calls {
		if joined := strings.Join(call, " "); joined == "uci commit tailscale" || strings.HasPrefix(joined, "uci set tailscale.settings.port") {
			t.Fatalf("nothing may run after the failure except revert, saw %q", joined)
		}
	}
}

func TestCLIStoreSaveSectionValidatesBeforeStaging(t *testing.T) {
	m := &runner.MockRunner{}
	store := NewCLIStore("uci", m)
	err := store.SaveSection(context.Background(), "tailscale", Section{
		Name: "settings",
		Type: "config",
		Options: map[string]Option{
			"port":   {Values: []string{"1"}},
			"bad.name": {Values: []string{"1"}},
		},
	})
	if err == nil {
		t.Fatalf("expected invalid option name to be rejected")
	}
	if calls := m.Ran(); len(calls) != 0 {
		t.Fatalf("no uci command should run, got %#v", calls)
	}
}

func TestCLIStoreSaveSectionRejectsInjection(t *testing.T) {
	store := NewCLIStore("uci", &runner.MockRunner{})
	err := store.SaveSection(context.Background(), "tailscale", Section{
		Name:    "settings",
		Options: map[string]Option{"port.x": {Values: []string{"1"}}},
	})
	if err == nil {
		t.Fatalf("expected invalid option name to be rejected")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.SaveSection(ctx, "tailscale", Section{
		Name:    "settings",
		Type:    "config",
		Options: map[string]Option{"port": {Values: []string{"1234"}}, "flags": {Values: []string{"--a=b"}, List: true}},
	}); err != nil {
		t.Fatalf("SaveSection failed: %v", err)
	}
	if err := store.SaveSection(ctx, "tailscale", Section{
		Name:    "settings",
		Options: map[string]Option{"flags": {}},
	}); err != nil {
		t.Fatalf("SaveSection delete failed: %v", err)
	}
	pkg, err := store.Load(ctx, "tailscale")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	sec, _ := pkg.Section("settings")
	if sec.Type != "config" || sec.Options["port"].Value() != "1234" {
		t.Fatalf("unexpected section %+v", sec)
	}
	if _, ok := sec.Get("flags"); ok {
		t.Fatalf("expected flags to be deleted")
	}
	if store.Commits() != 2 {
		t.Fatalf("expected 2 commits, got %d", store.Commits())
	}
}
