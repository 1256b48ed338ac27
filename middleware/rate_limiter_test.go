package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustsBurst(t *testing.T) {
	bucket := newTokenBucket(1, 3)

	assert.True(t, bucket.allow())
	assert.True(t, bucket.allow())
	assert.True(t, bucket.allow())
	assert.False(t, bucket.allow())
}

func TestIPRateLimiterRejectsAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", IPRateLimiter(1, 2), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	doRequest := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:4711"
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, doRequest())
	assert.Equal(t, http.StatusOK, doRequest())
	assert.Equal(t, http.StatusTooManyRequests, doRequest())
}

func TestIPRateLimiterKeysPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook/incoming", IPRateLimiter(1, 1), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	doRequest := func(addr string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook/incoming", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		return w.Code
	}

	// 第一个IP用尽配额不影响第二个IP
	assert.Equal(t, http.StatusOK, doRequest("10.0.0.1:4711"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest("10.0.0.1:4711"))
	assert.Equal(t, http.StatusOK, doRequest("10.0.0.2:4711"))
}
