package httpx

import (
	"net"
	"net/http"
	"strings"
)

// KeyExtractor is a function that extracts a unique key from the request
// for rate limiting purposes (e.g., IP address, caller identity).
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	// Check X-Forwarded-For header (comma-separated list)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fallback to RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// IdentityKeyExtractor extracts the authenticated caller identity from the
// request context. Returns empty string if the request is unauthenticated.
func IdentityKeyExtractor(r *http.Request) string {
	return IdentityFromContext(r.Context())
}

// ClientKeyExtractor is the default guard key: the authenticated identity
// when present, otherwise the caller IP.
func ClientKeyExtractor(r *http.Request) string {
	if id := IdentityKeyExtractor(r); id != "" {
		return id
	}
	return IPKeyExtractor(r)
}
