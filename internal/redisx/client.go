package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Invalidate drops cached projections; a miss is not an error.
func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if len(keys) == 0 {
		return
	}
	_ = rdb.Del(ctx, keys...).Err()
}
