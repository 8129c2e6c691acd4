package util

import (
	"errors"
	"testing"
)

func TestFirstIPv4(t *testing.T) {
	if got := firstIPv4([]string{"fe80::1/64", "192.168.1.1/24"}); got != "192.168.1.1" {
		t.Fatalf("unexpected address %q", got)
	}
	if got := firstIPv4([]string{"fe80::1/64", "garbage"}); got != "" {
		t.Fatalf("expected no address, got %q", got)
	}
}

func TestResolveListenAddress(t *testing.T) {
	lookup := func(name string) (string, error) {
		if name == "br-lan" {
			return "192.168.1.1", nil
		}
		return "", errors.New("no such interface")
	}
	tests := []struct {
		addr, iface, want string
		wantErr           bool
	}{
		{":8092", "", ":8092", false},
		{"8092", "", ":8092", false},
		{"", "", ":8092", false},
		{"127.0.0.1:9000", "", "127.0.0.1:9000", false},
		{":8092", "br-lan", "192.168.1.1:8092", false},
		{":8092", "eth9", ":8092", true},
	}
	for _, tc := range tests {
		got, err := ResolveListenAddress(tc.addr, tc.iface, lookup)
		if got != tc.want {
			t.Fatalf("ResolveListenAddress(%q, %q) = %q, want %q", tc.addr, tc.iface, got, tc.want)
		}
		if (err != nil) != tc.wantErr {
			t.Fatalf("ResolveListenAddress(%q, %q) err = %v", tc.addr, tc.iface, err)
		}
	}
}

func TestSelectLANInterface_PrefersBrLan(t *testing.T) {
	name, ip := SelectLANInterface([]InterfaceInfo{
		{Name: "eth0", Addresses: []string{"192.168.8.10/24"}},
		{Name: "br-guest", Addresses: []string{"10.0.0.1/24"}},
		{Name: "br-lan", Addresses: []string{"192.168.1.1/24"}},
	})
	if name != "br-lan" || ip != "192.168.1.1" {
		t.Fatalf("expected br-lan, got %q %q", name, ip)
	}
}

func TestSelectLANInterface_SkipsTunnels(t *testing.T) {
	name, ip := SelectLANInterface([]InterfaceInfo{
		{Name: "tailscale0", Addresses: []string{"100.64.0.1/32"}},
		{Name: "wg0", Addresses: []string{"10.99.0.2/32"}},
		{Name: "br10", Addresses: []string{"192.168.10.1/24"}},
	})
	if name != "br10" || ip != "192.168.10.1" {
		t.Fatalf("expected br10, got %q %q", name, ip)
	}
}

func TestSelectLANInterface_NoPrivateCandidate(t *testing.T) {
	name, ip := SelectLANInterface([]InterfaceInfo{
		{Name: "lo", Addresses: []string{"127.0.0.1/8"}},
		{Name: "eth0", Addresses: []string{"198.51.100.10/24"}},
	})
	if name != "" || ip != "" {
		t.Fatalf("expected no candidate, got name=%q ip=%q", name, ip)
	}
}
