// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionCacheClient is the dedicated client for conversation storage.
var SessionCacheClient *redis.Client

// InitSessionCache initializes the Redis client backing the conversation
// store. Addr comes from configuration; an empty addr means the process
// runs with the in-memory store instead and this is never called.
func InitSessionCache(addr, password string, db int) {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := SessionCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Sessions): %v", err)
	}
}

// GetSessionCacheClient returns the conversation store client.
func GetSessionCacheClient() *redis.Client {
	return SessionCacheClient
}
