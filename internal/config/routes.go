package config

import (
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// NormalizeRoutes parses a comma or whitespace separated list of CIDRs and
// addresses, masks each prefix and collapses overlaps. IPv4 prefixes are
// returned before IPv6 ones.
func NormalizeRoutes(raw string) ([]string, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil, nil
	}

	var builder netipx.IPSetBuilder
	for _, field := range fields {
		prefix, err := parseRoute(field)
		if err != nil {
			return nil, err
		}
		builder.AddPrefix(prefix)
	}
	set, err := builder.IPSet()
	if err != nil {
		return nil, err
	}
	prefixes := set.Prefixes()
	out := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		out = append(out, prefix.String())
	}
	return out, nil
}

func parseRoute(entry string) (netip.Prefix, error) {
	trimmed := strings.TrimSpace(entry)
	if strings.Contains(trimmed, "/") {
		prefix, err := netip.ParsePrefix(trimmed)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid route %q", entry)
		}
		if prefix.Addr().Is4In6() {
			return netip.Prefix{}, fmt.Errorf("invalid route %q: mapped IPv4 prefix", entry)
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(trimmed)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid route %q", entry)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
