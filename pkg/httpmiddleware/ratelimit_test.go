package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 3, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		_, _, allowed := rl.allow("client", now)
		assert.True(t, allowed, "request %d", i+1)
	}

	_, _, allowed := rl.allow("client", now)
	assert.False(t, allowed)
}

func TestRateLimiter_KeysIndependent(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	_, _, allowed := rl.allow("a", now)
	require.True(t, allowed)
	_, _, allowed = rl.allow("a", now)
	require.False(t, allowed)

	_, _, allowed = rl.allow("b", now)
	assert.True(t, allowed)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	start := time.Unix(1_700_000_040, 0)

	_, _, allowed := rl.allow("client", start)
	require.True(t, allowed)
	_, _, allowed = rl.allow("client", start)
	require.True(t, allowed)
	_, _, allowed = rl.allow("client", start)
	require.False(t, allowed)

	// Two full windows later the previous counts no longer weigh in.
	later := start.Add(2 * time.Minute)
	_, _, allowed = rl.allow("client", later)
	assert.True(t, allowed)
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 3, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	remaining, _, _ := rl.allow("client", now)
	assert.Equal(t, 2, remaining)
	remaining, _, _ = rl.allow("client", now)
	assert.Equal(t, 1, remaining)
	remaining, _, _ = rl.allow("client", now)
	assert.Equal(t, 0, remaining)
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	rl.allow("stale", now)
	rl.allow("fresh", now.Add(90*time.Second))

	rl.evict(now.Add(2 * time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.windows, "stale")
	assert.Contains(t, rl.windows, "fresh")
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Max:    2,
		Window: time.Minute,
		KeyFunc: func(*http.Request) string {
			return "fixed"
		},
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "10.0.0.1:1234", nil, "10.0.0.1"},
		{"x-forwarded-for single", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "203.0.113.7"},
		{"x-forwarded-for chain", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, "203.0.113.7"},
		{"x-real-ip", "10.0.0.1:1234", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}
