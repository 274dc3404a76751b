package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeinterview/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
)

type stubLimiter struct {
	result *cache.RateLimitResult
	err    error
	keys   []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (*cache.RateLimitResult, error) {
	s.keys = append(s.keys, key)
	return s.result, s.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"socket address", "10.1.2.3:5555", "", "10.1.2.3"},
		{"forwarded chain", "10.1.2.3:5555", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"blank forwarded", "10.1.2.3:5555", " ,", "10.1.2.3"},
		{"no port", "pipe", "", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			var got string
			ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetClientIP(r.Context())
			})).ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Empty(t, GetClientIP(context.Background()))
}

func TestRateLimiter(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Second)

	t.Run("allowed", func(t *testing.T) {
		stub := &stubLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4, ResetAt: resetAt, Limit: 5}}
		rl := NewRateLimiter(stub, "create", 5, time.Minute, zap.NewNop().Sugar(), tally.NoopScope)

		req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		ClientIP(rl.Limit(okHandler)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, []string{"create:192.0.2.1"}, stub.keys)
	})

	t.Run("rejected", func(t *testing.T) {
		scope := tally.NewTestScope("", nil)
		stub := &stubLimiter{result: &cache.RateLimitResult{Allowed: false, ResetAt: resetAt, Limit: 5}}
		rl := NewRateLimiter(stub, "create", 5, time.Minute, zap.NewNop().Sugar(), scope)

		rec := httptest.NewRecorder()
		rl.Limit(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.JSONEq(t, `{"error":{"message":"Too many requests, please try again later","code":"RATE_LIMITED"}}`, rec.Body.String())
		assert.Equal(t, "30", rec.Header().Get("Retry-After"))

		var rejected int64
		for _, c := range scope.Snapshot().Counters() {
			if c.Name() == "ratelimit.rejected" {
				rejected += c.Value()
			}
		}
		assert.Equal(t, int64(1), rejected)
	})

	t.Run("backend failure fails open", func(t *testing.T) {
		stub := &stubLimiter{err: errors.New("redis down")}
		rl := NewRateLimiter(stub, "create", 5, time.Minute, zap.NewNop().Sugar(), tally.NoopScope)

		rec := httptest.NewRecorder()
		rl.Limit(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})
}

func TestRecover(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		Recover(zap.NewNop().Sugar())(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"Internal server error"}}`, rec.Body.String())
}
