package geolib

import "net/netip"

var (
	ipv4PrivatePrefixes = []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("172.16.0.0/12"),
		netip.MustParsePrefix("192.168.0.0/16"),
	}
	ipv4ReservedPrefixes = []netip.Prefix{
		netip.MustParsePrefix("0.0.0.0/8"),
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("169.254.0.0/16"),
		netip.MustParsePrefix("240.0.0.0/4"),
	}
	ipv6PrivatePrefixes = []netip.Prefix{
		netip.MustParsePrefix("fc00::/7"),
	}
)

// IsValidIP checks if given address could be geolocated. These are
// public IPv4 addresses which are neither private nor reserved, and
// IPv6 addresses which are not private. Malformed strings, including
// addresses with surrounding whitespace, are invalid.
func IsValidIP(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	addr = addr.Unmap()

	if addr.Is4() {
		return !inPrefixes(addr, ipv4PrivatePrefixes) && !inPrefixes(addr, ipv4ReservedPrefixes)
	}

	return !inPrefixes(addr, ipv6PrivatePrefixes)
}

func inPrefixes(addr netip.Addr, prefixes []netip.Prefix) bool {
	for _, v := range prefixes {
		if v.Contains(addr) {
			return true
		}
	}

	return false
}
