package attach

import (
	"context"
	"net"
	"net/url"
	"strings"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
)

// MaxRedirects bounds how many redirect hops a remote fetch may follow,
// each one re-validated before the next request is made.
const MaxRedirects = 5

// reservedNets are address ranges not covered by the net.IP predicates but
// still off-limits for outbound fetches (future-use, benchmarking,
// documentation and shared address space).
var reservedNets []*net.IPNet

func init() {
	for _, cidr := range []string{
		"240.0.0.0/4",
		"198.18.0.0/15",
		"192.0.0.0/24",
		"192.0.2.0/24",
		"198.51.100.0/24",
		"203.0.113.0/24",
		"100.64.0.0/10",
	} {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		reservedNets = append(reservedNets, network)
	}
}

// validateRemoteURL checks a URL against the outbound fetch policy and
// returns a normalized form (fragment dropped, empty path becomes "/").
// Hostnames are resolved and every address checked; a host with even one
// disallowed address is rejected.
func validateRemoteURL(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", api.NewDisallowedURLError("invalid URL")
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		if scheme == "" {
			scheme = "empty"
		}
		return "", api.NewDisallowedURLError("unsupported scheme: " + scheme)
	}

	if parsed.User != nil {
		return "", api.NewDisallowedURLError("userinfo is not allowed")
	}

	host := strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	if host == "" {
		return "", api.NewDisallowedURLError("missing hostname")
	}
	if host == "localhost" {
		return "", api.NewDisallowedURLError("hostname is localhost")
	}

	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		if isDisallowedIP(ip) {
			return "", api.NewDisallowedURLError("disallowed IP: " + ip.String())
		}
	} else {
		addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return "", api.NewDisallowedURLError("cannot resolve host")
		}
		if len(addrs) == 0 {
			return "", api.NewDisallowedURLError("host resolved to no IPs")
		}
		for _, addr := range addrs {
			if isDisallowedIP(addr.IP) {
				return "", api.NewDisallowedURLError("host resolves to disallowed IP: " + addr.IP.String())
			}
		}
	}

	normalized := *parsed
	normalized.Scheme = scheme
	normalized.Fragment = ""
	if normalized.Path == "" {
		normalized.Path = "/"
	}
	return normalized.String(), nil
}

// isDisallowedIP blocks common SSRF targets and non-global ranges.
func isDisallowedIP(ip net.IP) bool {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, network := range reservedNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
