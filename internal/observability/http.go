package observability

import (
	"net"
	"net/http"
	"strings"
)

// Headers a client may send to identify itself on the websocket handshake.
const (
	HeaderDeviceID  = "X-Device-Id"
	HeaderRequestID = "X-Request-Id"
	HeaderRealIP    = "X-Real-IP"
	HeaderForwarded = "X-Forwarded-For"
)

// ClientMeta is what the connection events record about the peer.
type ClientMeta struct {
	DeviceID  string
	RequestID string
	IP        string
}

// ClientMetaFromRequest reads peer metadata off a handshake request.
func ClientMetaFromRequest(r *http.Request) ClientMeta {
	return ClientMeta{
		DeviceID:  strings.TrimSpace(r.Header.Get(HeaderDeviceID)),
		RequestID: strings.TrimSpace(r.Header.Get(HeaderRequestID)),
		IP:        clientIP(r),
	}
}

// clientIP prefers the proxy headers, first hop of X-Forwarded-For winning
// over X-Real-IP, and falls back to the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get(HeaderForwarded); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get(HeaderRealIP)); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
