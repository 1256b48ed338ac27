package middleware

import (
	"sync"
	"time"

	"carecall-http-service/internal/error/code"
	"carecall-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// tokenBucket 按秒填充的令牌桶
type tokenBucket struct {
	rate       float64
	capacity   float64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	return &tokenBucket{
		rate:       rate,
		capacity:   float64(burst),
		tokens:     float64(burst),
		lastRefill: time.Now(),
	}
}

// allow 填充并尝试取一个令牌
func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.rate
	b.lastRefill = now
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// rateLimiterStore 按键保存令牌桶，过旧的条目定期清理
type rateLimiterStore struct {
	rate    float64
	burst   int
	buckets map[string]*tokenBucket
	mu      sync.Mutex
}

func newRateLimiterStore(rate float64, burst int) *rateLimiterStore {
	store := &rateLimiterStore{
		rate:    rate,
		burst:   burst,
		buckets: make(map[string]*tokenBucket),
	}
	go store.cleanupLoop()
	return store
}

func (s *rateLimiterStore) bucket(key string) *tokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	if !ok {
		b = newTokenBucket(s.rate, s.burst)
		s.buckets[key] = b
	}
	return b
}

// cleanupLoop 每小时丢弃长时间没有流量的桶
func (s *rateLimiterStore) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		s.mu.Lock()
		for key, b := range s.buckets {
			b.mu.Lock()
			stale := b.lastRefill.Before(cutoff)
			b.mu.Unlock()
			if stale {
				delete(s.buckets, key)
			}
		}
		s.mu.Unlock()
	}
}

// IPRateLimiter 按来源IP限流，用在未认证的公共路由上
// 登录口防爆破，回调口防网关侧事件风暴
func IPRateLimiter(rate float64, burst int) gin.HandlerFunc {
	store := newRateLimiterStore(rate, burst)

	return func(c *gin.Context) {
		if !store.bucket(c.ClientIP()).allow() {
			response.Fail(c, code.ErrTooManyRequests, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
