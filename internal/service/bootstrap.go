package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/biomarker-range-server/internal/cache"
	"github.com/biomarker-range-server/internal/domain"
	"github.com/biomarker-range-server/internal/health"
	"github.com/biomarker-range-server/pkg/external"
)

// NewRowSource builds the ingestion chain described by the source configuration: the sheet
// export backed by the local CSV, or whichever of the two is configured. The sheet source is
// returned separately (nil when not configured) so its breaker can be reported.
func NewRowSource(config domain.SourceConfig, catalog []domain.BiomarkerSpec, logger *logrus.Logger) (domain.RowSource, *external.SheetSource, error) {
	switch {
	case config.SheetURL != "" && config.LocalPath != "":
		sheet := external.NewSheetSource(config, logger)
		return external.NewFallbackSource(
			sheet,
			external.NewFileSource(config.LocalPath, logger),
			Completeness(catalog),
			logger,
		), sheet, nil
	case config.SheetURL != "":
		sheet := external.NewSheetSource(config, logger)
		return external.NewFallbackSource(sheet, nil, Completeness(catalog), logger), sheet, nil
	case config.LocalPath != "":
		return external.NewFileSource(config.LocalPath, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("no biomarker source configured")
	}
}

// Runtime holds the wired dashboard and the infrastructure around it.
type Runtime struct {
	Dashboard *DashboardService
	Cache     *cache.TieredCache
	Health    *health.Checker
}

// NewRuntime wires the dashboard service with its sources, cache and health checks.
func NewRuntime(config *domain.Config, logger *logrus.Logger) (*Runtime, error) {
	source, sheet, err := NewRowSource(config.Source, config.Dashboard.Biomarkers, logger)
	if err != nil {
		return nil, err
	}

	snapshots, err := cache.New(config.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}

	checker := health.NewChecker(config.MCP.ServerVersion, config.Source.Timeout, logger)
	if sheet != nil {
		checker.RegisterCheck(health.NewBreakerCheck("sheet", sheet.BreakerState))
	}
	if snapshots.HasShared() {
		checker.RegisterCheck(health.NewPingCheck("redis", snapshots.Ping))
	}
	checker.RegisterCheck(health.NewFuncCheck("snapshot_cache", func() map[string]any {
		stats := snapshots.Stats()
		return map[string]any{
			"memory_hits":   stats.MemoryHits,
			"memory_misses": stats.MemoryMisses,
			"redis_hits":    stats.RedisHits,
			"redis_misses":  stats.RedisMisses,
			"errors":        stats.Errors,
		}
	}))

	return &Runtime{
		Dashboard: NewDashboardService(source, snapshots, config.Dashboard, config.Cache.DefaultTTL, logger),
		Cache:     snapshots,
		Health:    checker,
	}, nil
}

// Close releases the cache connections.
func (r *Runtime) Close() error {
	return r.Cache.Close()
}
