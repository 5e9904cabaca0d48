package ratelimit

import (
	"net/http"
	"strconv"
	"unicode/utf16"

	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
)

// Fingerprint identifies a client for limiting purposes.
type Fingerprint struct {
	IP        string
	UserAgent string
}

// FingerprintFromRequest builds a Fingerprint using httpx.ClientIP.
func FingerprintFromRequest(r *http.Request) Fingerprint {
	return Fingerprint{IP: httpx.ClientIP(r), UserAgent: r.UserAgent()}
}

// Key is the storage key for action and fp: "action:ip:uahash".
func Key(action Action, fp Fingerprint) string {
	ip := fp.IP
	if ip == "" {
		ip = httpx.LoopbackIP
	}
	return string(action) + ":" + ip + ":" + UserAgentHash(fp.UserAgent)
}

// UserAgentHash is a 31-multiplier 32-bit hash over the UTF-16 code units of
// ua, rendered in base36 and cut to 8 characters. An empty agent hashes as
// "unknown".
func UserAgentHash(ua string) string {
	if ua == "" {
		ua = "unknown"
	}

	var h int32
	for _, c := range utf16.Encode([]rune(ua)) {
		h = h<<5 - h + int32(c)
	}

	n := int64(h)
	if n < 0 {
		n = -n
	}
	s := strconv.FormatInt(n, 36)
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}
