package middleware

import (
	"net/http"
	"strconv"
	"time"

	"codeinterview/internal/cache"
	"codeinterview/internal/model"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
)

// RateLimiter caps requests per client address in a sliding window
type RateLimiter struct {
	limiter cache.RateLimitCache
	scope   string
	limit   int
	window  time.Duration
	logger  *zap.SugaredLogger
	stats   tally.Scope
}

// NewRateLimiter creates a limiter for one route family; scope namespaces
// its Redis keys.
func NewRateLimiter(limiter cache.RateLimitCache, scope string, limit int, window time.Duration, logger *zap.SugaredLogger, stats tally.Scope) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		scope:   scope,
		limit:   limit,
		window:  window,
		logger:  logger,
		stats:   stats,
	}
}

// Limit rejects requests over the limit with 429. Backend failures let the
// request through.
func (m *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := GetClientIP(r.Context())
		if client == "" {
			client = clientIP(r)
		}

		result, err := m.limiter.Allow(r.Context(), m.scope+":"+client, m.limit, m.window)
		if err != nil {
			m.logger.Warnw("rate limit check failed", "scope", m.scope, "client", client, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			m.stats.Tagged(map[string]string{"scope": m.scope}).Counter("ratelimit.rejected").Inc(1)
			m.logger.Infow("rate limit exceeded", "scope", m.scope, "client", client)

			retry := int(time.Until(result.ResetAt).Round(time.Second).Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, model.ErrCodeRateLimited, "Too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}
