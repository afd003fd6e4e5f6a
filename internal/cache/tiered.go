package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/biomarker-range-server/internal/domain"
)

// Stats counts cache lookups per tier.
type Stats struct {
	MemoryHits   int64     `json:"memory_hits"`
	MemoryMisses int64     `json:"memory_misses"`
	RedisHits    int64     `json:"redis_hits"`
	RedisMisses  int64     `json:"redis_misses"`
	Errors       int64     `json:"errors"`
	LastReset    time.Time `json:"last_reset"`
}

// TieredCache looks up the memory tier first, then the shared tier, back-filling memory on a
// shared hit. The shared tier is optional.
type TieredCache struct {
	memory *MemoryCache
	shared domain.SnapshotCache
	logger *logrus.Logger

	statsMu sync.Mutex
	stats   Stats
}

// NewTieredCache combines the two tiers. shared may be nil.
func NewTieredCache(memory *MemoryCache, shared domain.SnapshotCache, logger *logrus.Logger) *TieredCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TieredCache{
		memory: memory,
		shared: shared,
		logger: logger,
		stats:  Stats{LastReset: time.Now()},
	}
}

// New builds the cache described by config, connecting to redis when a URL is set.
func New(config domain.CacheConfig, logger *logrus.Logger) (*TieredCache, error) {
	memory := NewMemoryCache(config.MemoryMaxItems, config.MemoryTTL)

	redisCache, err := NewRedisCache(config)
	if err != nil {
		return nil, err
	}
	if redisCache == nil {
		return NewTieredCache(memory, nil, logger), nil
	}
	return NewTieredCache(memory, redisCache, logger), nil
}

// Get implements domain.SnapshotCache.
func (t *TieredCache) Get(ctx context.Context, key string) (*domain.Snapshot, bool) {
	if snap, ok := t.memory.Get(ctx, key); ok {
		t.count(func(s *Stats) { s.MemoryHits++ })
		return snap, true
	}
	t.count(func(s *Stats) { s.MemoryMisses++ })

	if t.shared == nil {
		return nil, false
	}

	snap, ok := t.shared.Get(ctx, key)
	if !ok {
		t.count(func(s *Stats) { s.RedisMisses++ })
		return nil, false
	}
	t.count(func(s *Stats) { s.RedisHits++ })

	_ = t.memory.Set(ctx, key, snap, 0)
	t.logger.WithFields(logrus.Fields{
		"key":        key,
		"cache_tier": "redis",
	}).Debug("Cache hit in shared tier")
	return snap, true
}

// Set writes both tiers. A shared tier failure is logged and returned; the memory tier is
// still populated.
func (t *TieredCache) Set(ctx context.Context, key string, snap *domain.Snapshot, ttl time.Duration) error {
	_ = t.memory.Set(ctx, key, snap, ttl)
	if t.shared == nil {
		return nil
	}
	if err := t.shared.Set(ctx, key, snap, ttl); err != nil {
		t.count(func(s *Stats) { s.Errors++ })
		t.logger.WithError(err).WithField("key", key).Warn("Failed to write shared cache")
		return err
	}
	return nil
}

// Delete removes key from both tiers.
func (t *TieredCache) Delete(ctx context.Context, key string) error {
	_ = t.memory.Delete(ctx, key)
	if t.shared == nil {
		return nil
	}
	return t.shared.Delete(ctx, key)
}

// Stats returns a copy of the lookup counters.
func (t *TieredCache) Stats() Stats {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()
	return t.stats
}

// HasShared reports whether a shared tier is configured.
func (t *TieredCache) HasShared() bool {
	return t.shared != nil
}

// Ping checks the shared tier. Without one, or when the tier cannot be pinged, it succeeds.
func (t *TieredCache) Ping(ctx context.Context) error {
	if p, ok := t.shared.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the shared tier.
func (t *TieredCache) Close() error {
	if c, ok := t.shared.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (t *TieredCache) count(fn func(*Stats)) {
	t.statsMu.Lock()
	fn(&t.stats)
	t.statsMu.Unlock()
}
