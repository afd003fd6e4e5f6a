// Package cache keeps loaded snapshots between data-load cycles: an in-process LRU tier and
// an optional shared redis tier.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/biomarker-range-server/internal/domain"
)

const (
	defaultMemoryMaxItems = 16
	defaultMemoryTTL      = time.Minute
)

// MemoryCache is the in-process tier. Entries expire after a fixed TTL chosen at
// construction; the per-call ttl of Set is ignored.
type MemoryCache struct {
	lru *expirable.LRU[string, *domain.Snapshot]
}

// NewMemoryCache creates the in-process tier.
func NewMemoryCache(maxItems int, ttl time.Duration) *MemoryCache {
	if maxItems <= 0 {
		maxItems = defaultMemoryMaxItems
	}
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, *domain.Snapshot](maxItems, nil, ttl),
	}
}

// Get returns the snapshot stored under key.
func (m *MemoryCache) Get(_ context.Context, key string) (*domain.Snapshot, bool) {
	return m.lru.Get(key)
}

// Set stores snap under key.
func (m *MemoryCache) Set(_ context.Context, key string, snap *domain.Snapshot, _ time.Duration) error {
	m.lru.Add(key, snap)
	return nil
}

// Delete removes key.
func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Len reports the number of live entries.
func (m *MemoryCache) Len() int {
	return m.lru.Len()
}
