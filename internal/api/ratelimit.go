package api

import (
	"log/slog"
	"net"
	"net/http"

	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
	"github.com/moodtrail/moodtrail/internal/ratelimit"
)

// rateLimitMiddleware throttles requests per authenticated user, falling back
// to the client IP for anonymous callers. Health and metrics are exempt.
func rateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			key := "ip:" + clientIP(r)
			if userID, err := GetUserID(r.Context()); err == nil {
				key = "user:" + userID
			}

			if !limiter.Allow(key) {
				logger.Warn("rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
				)
				writeError(w, domainerrors.RateLimited("Too many requests. Please try again later."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. RealIP middleware has already
// applied forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
