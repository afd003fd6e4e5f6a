package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/biomarker-range-server/internal/domain"
)

const keyPrefix = "biomarker:snapshot:"

// CachedSnapshot is the redis envelope around a snapshot.
type CachedSnapshot struct {
	Data      *domain.Snapshot `json:"data"`
	CachedAt  time.Time        `json:"cached_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// RedisCache is the shared tier backed by redis.
type RedisCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache connects to redis. It returns nil and no error when no URL is configured,
// which disables the tier.
func NewRedisCache(config domain.CacheConfig) (*RedisCache, error) {
	if config.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheWithClient(client, config.DefaultTTL), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, defaultTTL time.Duration) *RedisCache {
	return &RedisCache{redis: client, defaultTTL: defaultTTL}
}

// Get retrieves a cached snapshot. Corrupted or expired entries are removed and reported as
// a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.Snapshot, bool) {
	redisKey := generateKey(key)

	val, err := c.redis.Get(ctx, redisKey).Bytes()
	if err != nil {
		return nil, false
	}

	snap, ok := decodeEnvelope(val, time.Now())
	if !ok {
		c.redis.Del(ctx, redisKey)
		return nil, false
	}
	return snap, true
}

// Set caches snap. A zero ttl uses the configured default.
func (c *RedisCache) Set(ctx context.Context, key string, snap *domain.Snapshot, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	data, err := encodeEnvelope(snap, time.Now(), ttl)
	if err != nil {
		return err
	}

	return c.redis.Set(ctx, generateKey(key), data, ttl).Err()
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := c.redis.Del(ctx, generateKey(key)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Ping checks the redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}

func encodeEnvelope(snap *domain.Snapshot, now time.Time, ttl time.Duration) ([]byte, error) {
	cached := CachedSnapshot{
		Data:      snap,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot cache data: %w", err)
	}
	return data, nil
}

func decodeEnvelope(val []byte, now time.Time) (*domain.Snapshot, bool) {
	var cached CachedSnapshot
	if err := json.Unmarshal(val, &cached); err != nil || cached.Data == nil {
		return nil, false
	}
	if now.After(cached.ExpiresAt) {
		return nil, false
	}
	return cached.Data, true
}

func generateKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:8])
}
