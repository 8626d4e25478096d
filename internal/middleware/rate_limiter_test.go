package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(cfg RateLimiterConfig) *gin.Engine {
		r := gin.New()
		r.Use(RateLimiterMiddleware(cfg))
		r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
		return r
	}
	get := func(r *gin.Engine, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Burst Then Reject", func(t *testing.T) {
		r := newRouter(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 2})
		assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)
		assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)

		w := get(r, "10.0.0.1")
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "Rate limit exceeded")
	})

	t.Run("Per Client", func(t *testing.T) {
		r := newRouter(RateLimiterConfig{RequestsPerSecond: 0.001, Burst: 1})
		assert.Equal(t, http.StatusOK, get(r, "10.0.0.1").Code)
		assert.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1").Code)
		assert.Equal(t, http.StatusOK, get(r, "10.0.0.2").Code)
	})
}

func TestRateLimiterEviction(t *testing.T) {
	rl := newRateLimiterMap(RateLimiterConfig{RequestsPerSecond: 5, IdleTTL: time.Minute})
	assert.Equal(t, 5, rl.config.Burst, "burst defaults to the rate")

	start := time.Now()
	rl.getLimiter("a", start)
	rl.getLimiter("b", start.Add(50*time.Second))

	assert.Equal(t, 1, rl.evict(start.Add(90*time.Second)))
	assert.Equal(t, 1, rl.size())
	assert.Equal(t, 1, rl.evict(start.Add(3*time.Minute)))
	assert.Equal(t, 0, rl.size())
}
