package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/Vovarama1992/homecare-engage/internal/util"
)

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Middleware limits unsafe methods per client IP. Reads pass through.
// A nil limiter disables limiting.
func Middleware(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r)
			if !l.Allow(r.Context(), ip) {
				slog.Warn("rate limited", "ip", ip, "path", r.URL.Path)
				util.WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP relies on chi's RealIP middleware having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
