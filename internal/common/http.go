package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address from RemoteAddr. Proxy headers are
// resolved upstream by chi's middleware.RealIP.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
