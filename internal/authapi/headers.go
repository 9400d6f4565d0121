// internal/authapi/headers.go
//
// Header plumbing between the browser request and the service.

package authapi

import (
	"net"
	"net/http"

	"go.uber.org/zap"
)

// forwarded lists the browser headers the service may see.  Everything
// else, notably Authorization and Host, stays behind.
var forwarded = []string{
	"Cookie",
	"User-Agent",
	"Origin",
	"Accept-Language",
	"X-Forwarded-For",
}

// copyForwarded copies the allow-listed headers from src to dst.
func copyForwarded(dst, src http.Header) {
	for _, k := range forwarded {
		for _, v := range src.Values(k) {
			dst.Add(k, v)
		}
	}
}

// RequestHeaders returns the allow-listed headers of r.  X-Forwarded-For
// is replaced by the peer address: whatever the browser sent is dropped,
// so it cannot choose the IP the service rate-limits on.  Run
// middleware.ClientAddr first when Gatehouse sits behind proxies.
func RequestHeaders(r *http.Request) http.Header {
	h := make(http.Header, len(forwarded))
	copyForwarded(h, r.Header)
	h.Del("X-Forwarded-For")

	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip != "" {
		h.Set("X-Forwarded-For", ip)
	}
	return h
}

// RelayCookies copies every Set-Cookie from a Reply onto w.
func RelayCookies(w http.ResponseWriter, rep *Reply) {
	if rep == nil {
		return
	}
	for _, c := range rep.SetCookie {
		w.Header().Add("Set-Cookie", c)
	}
}

// leveled adapts a sugared logger to retryablehttp.LeveledLogger.
type leveled struct{ log *zap.SugaredLogger }

func (l leveled) Error(msg string, kv ...any) { l.log.Errorw(msg, kv...) }
func (l leveled) Warn(msg string, kv ...any)  { l.log.Warnw(msg, kv...) }
func (l leveled) Info(msg string, kv ...any)  { l.log.Debugw(msg, kv...) }
func (l leveled) Debug(msg string, kv ...any) { l.log.Debugw(msg, kv...) }
