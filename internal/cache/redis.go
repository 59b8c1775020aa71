package cache

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// InitRedis connects the shared client. The series cache is an
// optimization only, so an unreachable Redis leaves Client nil and the
// service fetches straight from the provider.
func InitRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable at %s, series caching disabled: %v", addr, err)
		return
	}
	Client = client
	log.Println("Connected to Redis")
}
