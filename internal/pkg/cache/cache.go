package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omniagency/omniagency/internal/pkg/config"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

const userPlanTTL = 10 * time.Minute

// Setup initializes the connection to the cache server. The cache is an
// optimization only; a failed connection degrades to direct DB reads.
func Setup(cfg *config.Config) {
	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.CacheHost, cfg.CachePort),
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}
}

// GetClient returns the Redis client instance, or nil before Setup.
func GetClient() *redis.Client {
	return client
}

func userPlanKey(userID uint) string {
	return fmt.Sprintf("user:%d:plan", userID)
}

// GetUserPlan returns the cached plan for a user, or "" on miss/error.
func GetUserPlan(userID uint) string {
	if client == nil {
		return ""
	}
	val, err := client.Get(ctx, userPlanKey(userID)).Result()
	if err != nil {
		return ""
	}
	return val
}

// SetUserPlan caches a user's plan with a bounded TTL.
func SetUserPlan(userID uint, plan string) {
	if client == nil {
		return
	}
	if err := client.Set(ctx, userPlanKey(userID), plan, userPlanTTL).Err(); err != nil {
		log.Printf("cache: failed to store plan for user %d: %v", userID, err)
	}
}

// InvalidateUserPlan drops the cached plan after a billing projection.
func InvalidateUserPlan(userID uint) {
	if client == nil {
		return
	}
	if err := client.Del(ctx, userPlanKey(userID)).Err(); err != nil {
		log.Printf("cache: failed to invalidate plan for user %d: %v", userID, err)
	}
}
