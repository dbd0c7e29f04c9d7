package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter guards credential endpoints against brute forcing.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest keys the limiter on scope plus client IP so login attempts
// from one address cannot consume another endpoint's budget. A nil limiter
// admits everything.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	ip := clientIP(r)
	if scope == "" {
		return limiter.Allow(ip)
	}
	return limiter.Allow(scope + ":" + ip)
}

func clientIP(r *http.Request) string {
	// The first X-Forwarded-For entry is the originating client when the
	// service sits behind a proxy.
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}

	if host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr)); err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
