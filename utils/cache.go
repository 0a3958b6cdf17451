// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"smovers/config"

	"github.com/go-redis/redis/v8"
)

var (
	// AuthCacheClient holds revoked session token hashes.
	AuthCacheClient *redis.Client
	// TokenCacheClient holds the used proposal token set when it lives in redis.
	TokenCacheClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitRedis connects every redis client the service uses.
func InitRedis() {
	GetAuthCacheClient()
	GetTokenCacheClient()
}

// GetAuthCacheClient returns the Redis client for session revocation.
func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		AuthCacheClient = newRedisClient(config.AppConfig.RedisAuthDB, "Auth Cache")
	}
	return AuthCacheClient
}

// GetTokenCacheClient returns the Redis client for proposal token bookkeeping.
func GetTokenCacheClient() *redis.Client {
	if TokenCacheClient == nil {
		TokenCacheClient = newRedisClient(config.AppConfig.RedisTokenDB, "Token Cache")
	}
	return TokenCacheClient
}
