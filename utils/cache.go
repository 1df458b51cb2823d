package utils

import (
	"context"
	"log"
	"time"

	"schoolpay/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the shared Redis client for read-side caching.
var CacheClient *redis.Client

// InitCache initializes the Redis cache client using the configured cache DB.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the shared cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// CacheTTL returns the configured TTL for read-side cache entries.
func CacheTTL() time.Duration {
	secs := config.AppConfig.CacheTTLSeconds
	if secs <= 0 {
		secs = 60
	}
	return time.Duration(secs) * time.Second
}
