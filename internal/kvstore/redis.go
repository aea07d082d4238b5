package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/dhir4j/skillnation/internal/util"
)

// Redis is a Store backed by Redis with a write-through memory mirror.
// Redis failures are logged and absorbed: reads fall back to the mirror,
// writes keep the mirror authoritative for the rest of the process lifetime.
type Redis struct {
	rdb    *redis.Client
	mirror *Memory
	logger *zap.Logger
}

// NewRedis creates a Redis-backed store. The initial ping uses a short
// timeout; callers that get an error should fall back to NewMemory.
func NewRedis(addr, password string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{
		rdb:    rdb,
		mirror: NewMemory(),
		logger: util.NamedLogger("kvstore"),
	}, nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		// a value written while Redis was down lives only in the mirror
		return r.mirror.Get(ctx, key)
	}
	if err != nil {
		r.logger.Warn("redis get failed, serving memory mirror",
			zap.String("key", key), zap.Error(err))
		return r.mirror.Get(ctx, key)
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key, value string) {
	r.mirror.Set(ctx, key, value)
	if err := r.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		r.logger.Warn("redis set failed, value kept in memory only",
			zap.String("key", key), zap.Error(err))
	}
}

func (r *Redis) Remove(ctx context.Context, key string) {
	r.mirror.Remove(ctx, key)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		r.logger.Warn("redis del failed",
			zap.String("key", key), zap.Error(err))
	}
}
