package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/synthbed/tts-api/pkg/middleware"
)

// health and readiness style endpoints bypass the limiter entirely
var bypassPaths = map[string]struct{}{
	"/":          {},
	"/health":    {},
	"/v1/health": {},
	"/metrics":   {},
}

// Identifier resolves the rate-limit key for a request: the API key when
// present, the client address otherwise.
func Identifier(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return "key:" + apiKey
	}

	ip := middleware.ClientIP(r)
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return "ip:" + ip
}

// Handler is the chi middleware wrapping the limiter.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := bypassPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		identifier := Identifier(r)
		decision := l.Check(identifier)

		if !decision.Allowed {
			zap.S().Named("ratelimit").Warnw("rate limit exceeded",
				"identifier", identifier, "window", decision.Window,
				"limit", decision.Limit, "current", decision.Current)

			w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":               "rate_limit_exceeded",
				"message":             fmt.Sprintf("Rate limit exceeded: %d requests per %s", decision.Limit, decision.Window),
				"limit":               decision.Limit,
				"window":              decision.Window,
				"retry_after_seconds": decision.RetryAfter,
			})
			return
		}

		w.Header().Set("X-RateLimit-Limit-Minute", strconv.Itoa(l.perMinute))
		w.Header().Set("X-RateLimit-Limit-Hour", strconv.Itoa(l.perHour))
		w.Header().Set("X-RateLimit-Remaining-Minute", strconv.Itoa(max(0, l.perMinute-decision.MinuteCount)))
		w.Header().Set("X-RateLimit-Remaining-Hour", strconv.Itoa(max(0, l.perHour-decision.HourCount)))

		next.ServeHTTP(w, r)
	})
}
