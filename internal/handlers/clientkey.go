package handlers

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const unknownClient = "unknown"

// ClientKey identifies the client for bonus claims: the first
// X-Forwarded-For entry, else the connection address. Clients behind one
// proxy share a key. The header is client supplied; use PeerKey where a
// forged value must not help.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if key := NormalizeClientKey(first); key != unknownClient {
			return key
		}
	}
	return NormalizeClientKey(r.RemoteAddr)
}

// PeerKey identifies the client for rate limiting. Only the rightmost
// trustedHops X-Forwarded-For entries are honored, since those are appended
// by the proxies in front of the server. With no trusted hops, or a chain
// shorter than trustedHops, the connection address is used.
func PeerKey(r *http.Request, trustedHops int) string {
	if trustedHops > 0 {
		var chain []string
		for _, v := range r.Header.Values("X-Forwarded-For") {
			chain = append(chain, strings.Split(v, ",")...)
		}
		if len(chain) >= trustedHops {
			if key := NormalizeClientKey(chain[len(chain)-trustedHops]); key != unknownClient {
				return key
			}
		}
	}
	return NormalizeClientKey(r.RemoteAddr)
}

// NormalizeClientKey strips ports, brackets and IPv6 zones, unmaps
// IPv4-mapped IPv6 addresses and lowercases. Empty input yields "unknown".
func NormalizeClientKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return unknownClient
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return unknownClient
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Unmap().WithZone("").String()
	}
	return s
}
