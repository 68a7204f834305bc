package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"valuator/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps entries in Redis with a TTL and tracks each portfolio's
// keys in a set so Invalidate can find them. A zero TTL keeps entries until
// they are invalidated.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	logger.Get().Infow("Redis connected", "addr", addr, "pong", pong)
	return rdb, nil
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, portfolioID, key string, dest any) (bool, error) {
	k := entryKey(portfolioID, key)
	res, err := r.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", k, err)
	}

	if err := json.Unmarshal(res, dest); err != nil {
		logger.Get().Warnw("Dropping undecodable cache entry", "key", k, "error", err)
		_ = r.client.Del(ctx, k).Err()
		return false, nil
	}
	return true, nil
}

func (r *RedisCache) Set(ctx context.Context, portfolioID, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("can't marshal cache entry: %w", err)
	}

	k, idx := entryKey(portfolioID, key), indexKey(portfolioID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, k, data, r.ttl)
	pipe.SAdd(ctx, idx, k)
	// EXPIRE 0 deletes the index, orphaning entries that never expire
	if r.ttl > 0 {
		pipe.Expire(ctx, idx, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context, portfolioID string) error {
	idx := indexKey(portfolioID)
	keys, err := r.client.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("redis smembers %s: %w", idx, err)
	}

	if err := r.client.Del(ctx, append(keys, idx)...).Err(); err != nil {
		return fmt.Errorf("redis del for portfolio %s: %w", portfolioID, err)
	}
	logger.Get().Debugw("Invalidated cached valuations", "portfolio_id", portfolioID, "entries", len(keys))
	return nil
}
