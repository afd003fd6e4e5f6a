package domain

import (
	"context"
	"time"
)

// RowSource yields the filtered raw rows of one ingestion attempt.
type RowSource interface {
	FetchRows(ctx context.Context) (*RowBatch, error)
}

// SnapshotLoader runs load cycles and hands out the latest snapshot
type SnapshotLoader interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	Refresh(ctx context.Context) (*Snapshot, error)
}

// SnapshotCache stores snapshots between load cycles
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*Snapshot, bool)
	Set(ctx context.Context, key string, snap *Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetSourceConfig() *SourceConfig
	GetDashboardConfig() *DashboardConfig
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
