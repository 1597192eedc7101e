package middleware

import (
	"net/http"
	"strconv"
	"time"

	"creatorhub/internal/metrics"
	"creatorhub/internal/ratelimit"

	"github.com/rs/zerolog"
)

// RateLimitMiddleware throttles authenticated users. It must run after
// AuthMiddleware. Limiter errors let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, perMinute int, name string, m metrics.Recorder, logger zerolog.Logger) func(http.Handler) http.Handler {
	log := logger.With().Str("middleware", "RateLimit").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserID(r.Context())
			if !ok || perMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			now := time.Now()
			res, err := limiter.Allow(r.Context(), userID, perMinute, now)
			if err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				m.RecordRateLimited(name)
				retry := int(res.RetryAfter(now).Round(time.Second) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
