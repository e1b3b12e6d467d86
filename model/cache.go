package model

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/config"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
)

// API-key → user cache. Redis-backed when configured, in-process otherwise,
// both with a SYNC_FREQUENCY TTL and singleflight loads so a hot key misses
// the store at most once per expiry. Admin writes to users invalidate the
// affected keys.

var (
	userCache       = gocache.New(time.Duration(config.SyncFrequency)*time.Second, 10*time.Minute)
	userCacheLoader singleflight.Group
)

func userCacheKey(apiKey string) string {
	return fmt.Sprintf("user_by_key:%s", apiKey)
}

// CacheGetUserByAPIKey resolves an API key to its owning user, consulting
// the cache first. ErrNotFound propagates uncached so revoked keys take
// effect immediately.
func CacheGetUserByAPIKey(ctx context.Context, apiKey string) (*User, error) {
	if !config.MemoryCacheEnabled && !common.IsRedisEnabled() {
		return store.GetUserByAPIKey(apiKey)
	}

	cacheKey := userCacheKey(apiKey)
	if common.IsRedisEnabled() {
		data, err := common.RDB.Get(ctx, cacheKey).Result()
		if err == nil {
			var user User
			if err = json.Unmarshal([]byte(data), &user); err == nil {
				return &user, nil
			}
			logger.Logger.Warn("failed to decode cached user", zap.Error(err))
		}
	} else if cached, ok := userCache.Get(cacheKey); ok {
		return cached.(*User), nil
	}

	value, err, _ := userCacheLoader.Do(cacheKey, func() (any, error) {
		user, err := store.GetUserByAPIKey(apiKey)
		if err != nil {
			return nil, err
		}

		if common.IsRedisEnabled() {
			data, err := json.Marshal(user)
			if err != nil {
				return nil, errors.Wrap(err, "encode user for cache")
			}
			ttl := time.Duration(config.SyncFrequency) * time.Second
			if err := common.RDB.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
				logger.Logger.Warn("failed to cache user in redis", zap.Error(err))
			}
		} else {
			userCache.SetDefault(cacheKey, user)
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*User), nil
}

// CacheInvalidateUserKeys drops the cache entries for the given API keys.
// Called after admin writes so stale principals last at most one TTL.
func CacheInvalidateUserKeys(ctx context.Context, apiKeys []string) {
	for _, apiKey := range apiKeys {
		cacheKey := userCacheKey(apiKey)
		userCache.Delete(cacheKey)
		if common.IsRedisEnabled() {
			if err := common.RDB.Del(ctx, cacheKey).Err(); err != nil {
				logger.Logger.Warn("failed to invalidate cached user in redis", zap.Error(err))
			}
		}
	}
}
