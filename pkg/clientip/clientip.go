// Package clientip resolves the originating client address of an HTTP
// request behind the usual proxy headers.
package clientip

import (
	"net/http"
	"net/netip"
	"strings"
)

// FromRequest returns the client IP, preferring proxy headers over the
// socket address. Header values are validated; a spoofable but malformed
// entry never wins over RemoteAddr.
func FromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First valid entry is the original client.
		for part := range strings.SplitSeq(xff, ",") {
			if ip := normalize(part); ip != "" {
				return ip
			}
		}
	}

	if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host := r.RemoteAddr
	if ap, err := netip.ParseAddrPort(host); err == nil {
		return ap.Addr().String()
	}
	return normalize(host)
}

func normalize(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.String()
}
