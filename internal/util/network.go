// Package util holds network helpers for choosing the panel's listen address.
package util

import (
	"errors"
	"net"
	"net/netip"
	"sort"
	"strings"
)

// InterfaceInfo summarises a network interface and its addresses.
type InterfaceInfo struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
}

// InterfacesWithAddrs returns all interfaces along with their addresses.
func InterfacesWithAddrs() ([]InterfaceInfo, error) {
	list, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	infos := make([]InterfaceInfo, 0, len(list))
	for _, iface := range list {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		addresses := make([]string, 0, len(addrs))
		for _, addr := range addrs {
			addresses = append(addresses, addr.String())
		}
		infos = append(infos, InterfaceInfo{Name: iface.Name, Addresses: addresses})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// ErrNoIPv4 is returned when an interface has no IPv4 address.
var ErrNoIPv4 = errors.New("no IPv4 address found")

// InterfaceIPv4 returns the first IPv4 address bound to an interface.
func InterfaceIPv4(name string) (string, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return "", err
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", err
	}
	values := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		values = append(values, addr.String())
	}
	if ip := firstIPv4(values); ip != "" {
		return ip, nil
	}
	return "", ErrNoIPv4
}

func firstIPv4(addresses []string) string {
	for _, raw := range addresses {
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			continue
		}
		if addr := prefix.Addr(); addr.Is4() {
			return addr.String()
		}
	}
	return ""
}

// ResolveListenAddress binds addr's port to the IPv4 address of
// listenInterface. An empty interface, or one that cannot be resolved,
// keeps addr's own host. lookup is normally InterfaceIPv4.
func ResolveListenAddress(addr, listenInterface string, lookup func(string) (string, error)) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host = ""
		port = strings.TrimPrefix(addr, ":")
		if port == "" {
			port = "8092"
		}
	}
	fallback := net.JoinHostPort(host, port)
	if strings.TrimSpace(listenInterface) == "" {
		return fallback, nil
	}
	ip, err := lookup(listenInterface)
	if err != nil || ip == "" {
		if err == nil {
			err = ErrNoIPv4
		}
		return fallback, err
	}
	return net.JoinHostPort(ip, port), nil
}

// tunnelPrefixes are interfaces never offered as the LAN side.
var tunnelPrefixes = []string{"tailscale", "tun", "wg", "lo", "docker", "veth"}

// SelectLANInterface picks the interface most likely to face the LAN:
// br-lan when present, then any bridge, then any other non-tunnel
// interface holding a private IPv4 address.
func SelectLANInterface(infos []InterfaceInfo) (string, string) {
	type candidate struct {
		name, ip string
		rank     int
	}
	var best *candidate
	for _, info := range infos {
		if isTunnel(info.Name) {
			continue
		}
		ip := privateIPv4(info.Addresses)
		if ip == "" {
			continue
		}
		rank := 2
		switch {
		case info.Name == "br-lan":
			rank = 0
		case strings.HasPrefix(info.Name, "br"):
			rank = 1
		}
		if best == nil || rank < best.rank || (rank == best.rank && info.Name < best.name) {
			best = &candidate{name: info.Name, ip: ip, rank: rank}
		}
	}
	if best == nil {
		return "", ""
	}
	return best.name, best.ip
}

func isTunnel(name string) bool {
	for _, prefix := range tunnelPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func privateIPv4(addresses []string) string {
	for _, raw := range addresses {
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			continue
		}
		if addr := prefix.Addr(); addr.Is4() && addr.IsPrivate() {
			return addr.String()
		}
	}
	return ""
}
