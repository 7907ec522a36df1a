// Package middleware provides HTTP middleware for the application.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/ratelimit"
)

// RateLimit returns middleware that rate limits requests per client IP
// using the given store. On store failure the request is allowed through;
// dropping webhooks because Redis blinked would lose call data.
func RateLimit(store ratelimit.Store, cfg ratelimit.Config, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			result, err := store.Allow(r.Context(), ip, cfg.Limit, cfg.Window)
			if err != nil {
				logger.Error("rate limit store failure, allowing request",
					zap.String("ip", ip),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				logger.Warn("rate limit exceeded",
					zap.String("ip", ip),
					zap.String("path", r.URL.Path),
				)
				retryAfter := int(result.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP resolves the client address, trusting proxy headers when
// present. X-Forwarded-For may hold a chain; the first hop is the client.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, keep it whole
		return r.RemoteAddr
	}
	return host
}
