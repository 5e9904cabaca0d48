package httpx

import (
	"net"
	"net/http"
	"strings"
)

// LoopbackIP is used when no address can be determined.
const LoopbackIP = "127.0.0.1"

// ClientIP resolves the caller address. Proxy headers win in this order:
// the first X-Forwarded-For entry, X-Real-IP, CF-Connecting-IP. The socket
// peer is next and LoopbackIP is the last resort.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	for _, h := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return LoopbackIP
}
