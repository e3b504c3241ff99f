package leads

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClientKey is used when a request carries no client address.
const UnknownClientKey = "unknown"

// ClientKey derives the rate limit identity for a request behind a proxy:
// the first X-Forwarded-For hop, then X-Real-Ip, then UnknownClientKey.
// RemoteAddr is not consulted, so without a proxy setting these headers
// every caller shares the UnknownClientKey window. Use ClientKeyFromAddr
// when the service is exposed directly.
func ClientKey(r *http.Request) string {
	return ClientKeyFromHeaders(r.Header.Get("X-Forwarded-For"), r.Header.Get("X-Real-Ip"))
}

// ClientKeyFromAddr keys on the peer address ("host:port" or a bare IP)
// and ignores forwarding headers.
func ClientKeyFromAddr(remoteAddr string) string {
	if ip := normalizeIP(remoteAddr); ip != "" {
		return ip
	}
	return UnknownClientKey
}

// ClientKeyFromHeaders applies the ClientKey rules to raw header values.
func ClientKeyFromHeaders(forwardedFor, realIP string) string {
	if forwardedFor != "" {
		first := forwardedFor
		if i := strings.IndexByte(first, ','); i >= 0 {
			first = first[:i]
		}
		if ip := normalizeIP(first); ip != "" {
			return ip
		}
	}
	if ip := normalizeIP(realIP); ip != "" {
		return ip
	}
	return UnknownClientKey
}

func normalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return raw
}
