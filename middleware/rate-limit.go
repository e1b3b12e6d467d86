package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/config"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
)

// The HTTP edge limiter is a coarse per-IP sliding window guarding against
// abusive clients before any key resolution happens. It is independent of the
// quota system, which meters authenticated principals inside the workers.

type memoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func newMemoryRateLimiter() *memoryRateLimiter {
	limiter := &memoryRateLimiter{windows: make(map[string][]time.Time)}
	go limiter.gcLoop()
	return limiter
}

func (l *memoryRateLimiter) gcLoop() {
	for range time.Tick(config.RateLimitKeyExpirationDuration) {
		cutoff := time.Now().Add(-config.RateLimitKeyExpirationDuration)
		l.mu.Lock()
		for key, window := range l.windows {
			if len(window) == 0 || window[len(window)-1].Before(cutoff) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

func (l *memoryRateLimiter) allow(key string, maxRequestNum int, duration time.Duration) bool {
	now := time.Now()
	cutoff := now.Add(-duration)

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.windows[key]
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= maxRequestNum {
		l.windows[key] = kept
		return false
	}
	l.windows[key] = append(kept, now)
	return true
}

func redisAllow(c *gin.Context, key string, maxRequestNum int, duration time.Duration) bool {
	ctx := c.Request.Context()
	length, err := common.RDB.LLen(ctx, key).Result()
	if err != nil {
		logger.Logger.Warn("redis rate limit check failed", zap.Error(err))
		return true
	}
	if length < int64(maxRequestNum) {
		common.RDB.LPush(ctx, key, time.Now().Format(time.RFC3339Nano))
		common.RDB.Expire(ctx, key, config.RateLimitKeyExpirationDuration)
		return true
	}
	oldest, err := common.RDB.LIndex(ctx, key, int64(maxRequestNum-1)).Result()
	if err != nil {
		logger.Logger.Warn("redis rate limit check failed", zap.Error(err))
		return true
	}
	oldestTime, err := time.Parse(time.RFC3339Nano, oldest)
	if err != nil || time.Since(oldestTime) < duration {
		return false
	}
	common.RDB.LPush(ctx, key, time.Now().Format(time.RFC3339Nano))
	common.RDB.LTrim(ctx, key, 0, int64(maxRequestNum-1))
	common.RDB.Expire(ctx, key, config.RateLimitKeyExpirationDuration)
	return true
}

func rateLimitFactory(maxRequestNum int, duration time.Duration, mark string) gin.HandlerFunc {
	memory := newMemoryRateLimiter()
	return func(c *gin.Context) {
		key := fmt.Sprintf("rateLimit:%s:%s", mark, c.ClientIP())
		var allowed bool
		if common.IsRedisEnabled() {
			allowed = redisAllow(c, key, maxRequestNum, duration)
		} else {
			allowed = memory.allow(key, maxRequestNum, duration)
		}
		if !allowed {
			errResp := relaymodel.NewModelRateLimit("Too many requests from this address, please slow down", nil)
			errResp.StatusCode = http.StatusTooManyRequests
			AbortWithError(c, errResp)
			return
		}
		c.Next()
	}
}

// GlobalAPIRateLimit guards /v1 when enabled by configuration.
func GlobalAPIRateLimit() gin.HandlerFunc {
	if !config.GlobalApiRateLimitEnabled {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimitFactory(config.GlobalApiRateLimitNum,
		time.Duration(config.GlobalApiRateLimitDuration)*time.Second, "GA")
}

// CriticalRateLimit guards the admin login endpoint against brute force.
func CriticalRateLimit() gin.HandlerFunc {
	return rateLimitFactory(config.CriticalRateLimitNum,
		time.Duration(config.CriticalRateLimitDuration)*time.Second, "CT")
}
