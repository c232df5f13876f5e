package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// allowSearch reports whether the client may run another catalog search.
func (s *Server) allowSearch(r *http.Request) bool {
	if s.limiter == nil {
		return true
	}
	key := getClientIP(r.RemoteAddr)
	if s.limiter.Allow(key) {
		return true
	}
	s.logger.Warn("search rate limit exceeded",
		"ip", key,
		"path", r.URL.Path,
	)
	return false
}

// limitSearch is the huma flavour of allowSearch for /api/v1/search.
func (s *Server) limitSearch(ctx huma.Context, next func(huma.Context)) {
	if s.limiter == nil {
		next(ctx)
		return
	}
	key := getClientIP(ctx.RemoteAddr())
	if !s.limiter.Allow(key) {
		s.logger.Warn("search rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many searches, slow down")
		return
	}
	next(ctx)
}

// getClientIP strips the port from a remote address. chi's RealIP middleware
// has already applied X-Forwarded-For and X-Real-IP.
func getClientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
