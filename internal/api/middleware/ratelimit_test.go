package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventnest/server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newTestLimiter(t *testing.T, cfg config.RateLimitConfig) http.Handler {
	t.Helper()
	rl := NewRateLimiter(cfg, "test")
	t.Cleanup(rl.Stop)
	return rl.Middleware(okHandler())
}

func doRequest(handler http.Handler, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestRateLimit_AllowsBurstThenBlocks(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{PerMinute: 3})

	for i := range 3 {
		res := doRequest(handler, "/events", "192.168.1.100:12345", nil)
		require.Equal(t, http.StatusOK, res.Code, "request %d", i+1)
	}

	res := doRequest(handler, "/events", "192.168.1.100:12345", nil)
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
	assert.NotEmpty(t, res.Header().Get("Retry-After"))
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{PerMinute: 1})

	require.Equal(t, http.StatusOK, doRequest(handler, "/users/1", "10.0.0.1:1", nil).Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(handler, "/users/1", "10.0.0.1:2", nil).Code)
	require.Equal(t, http.StatusOK, doRequest(handler, "/users/1", "10.0.0.2:1", nil).Code)
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{PerMinute: 0})

	for range 50 {
		require.Equal(t, http.StatusOK, doRequest(handler, "/events", "10.0.0.1:1", nil).Code)
	}
}

func TestRateLimit_OperationalPathsExempt(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{PerMinute: 1})

	for _, path := range []string{"/health", "/metrics", "/version"} {
		for range 3 {
			require.Equal(t, http.StatusOK, doRequest(handler, path, "10.0.0.9:1", nil).Code, path)
		}
	}
}

func TestRateLimit_ForwardedForFromTrustedProxy(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{
		PerMinute:         1,
		TrustedProxyCIDRs: []string{"10.0.0.0/8"},
	})

	proxy := "10.1.2.3:443"
	require.Equal(t, http.StatusOK, doRequest(handler, "/events", proxy, map[string]string{"X-Forwarded-For": "203.0.113.1"}).Code)
	require.Equal(t, http.StatusOK, doRequest(handler, "/events", proxy, map[string]string{"X-Forwarded-For": "203.0.113.2, 10.1.2.3"}).Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(handler, "/events", proxy, map[string]string{"X-Forwarded-For": "203.0.113.1"}).Code)
}

func TestClientKey(t *testing.T) {
	trusted := parseCIDRs([]string{"10.0.0.0/8", "not-a-cidr"})
	require.Len(t, trusted, 1)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "untrusted peer ignores headers",
			remoteAddr: "198.51.100.7:5000",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:       "198.51.100.7",
		},
		{
			name:       "trusted proxy uses first forwarded address",
			remoteAddr: "10.0.0.5:5000",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.5"},
			want:       "1.2.3.4",
		},
		{
			name:       "trusted proxy falls back to X-Real-IP",
			remoteAddr: "10.0.0.5:5000",
			headers:    map[string]string{"X-Real-IP": "5.6.7.8"},
			want:       "5.6.7.8",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "198.51.100.7",
			want:       "198.51.100.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientKey(req, trusted))
		})
	}
}

func TestRateLimiter_CleanupEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{PerMinute: 10}, "test")
	defer rl.Stop()

	rl.limiter("stale")
	rl.limiter("fresh")

	rl.mu.Lock()
	rl.limiters["stale"].lastSeen = time.Now().Add(-2 * limiterTTL)
	rl.mu.Unlock()

	rl.cleanup(time.Now())

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.limiters, "stale")
	assert.Contains(t, rl.limiters, "fresh")
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{PerMinute: 10}, "test")
	rl.Stop()
	rl.Stop()
}
