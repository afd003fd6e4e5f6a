package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/biomarker-range-server/internal/domain"
	"github.com/biomarker-range-server/pkg/biomarker"
	"github.com/biomarker-range-server/pkg/external"
)

const snapshotCacheKeyPrefix = "dashboard:"

// DashboardService runs data-load cycles: fetch rows, select the catalog biomarkers,
// normalize and classify them, and keep the resulting snapshot.
type DashboardService struct {
	source     domain.RowSource
	cache      domain.SnapshotCache
	normalizer *biomarker.Normalizer
	config     domain.DashboardConfig
	cacheTTL   time.Duration
	logger     *logrus.Logger

	now   func() time.Time
	newID func() string

	// loads are serialized so a burst of refreshes hits the source once at a time
	loadMu sync.Mutex
}

// NewDashboardService creates the service. cache may be nil, in which case every Snapshot
// call performs a load.
func NewDashboardService(
	source domain.RowSource,
	cache domain.SnapshotCache,
	config domain.DashboardConfig,
	cacheTTL time.Duration,
	logger *logrus.Logger,
) *DashboardService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DashboardService{
		source:     source,
		cache:      cache,
		normalizer: biomarker.NewNormalizer(logger),
		config:     config,
		cacheTTL:   cacheTTL,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Catalog returns the configured biomarker specs.
func (s *DashboardService) Catalog() []domain.BiomarkerSpec {
	return s.config.Biomarkers
}

// Completeness returns the completeness predicate for the configured catalog.
func (s *DashboardService) Completeness() external.CompletenessFunc {
	return Completeness(s.config.Biomarkers)
}

// Snapshot returns the cached snapshot, loading one when the cache is empty.
func (s *DashboardService) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	if s.cache != nil {
		if snap, ok := s.cache.Get(ctx, s.cacheKey()); ok {
			return snap, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh always performs a load and replaces the cached snapshot on success. A failed load
// leaves the previous snapshot in place.
func (s *DashboardService) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cacheKey(), snap, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache snapshot")
		}
	}
	return snap, nil
}

// Load performs one data-load cycle without touching the cache.
func (s *DashboardService) Load(ctx context.Context) (*domain.Snapshot, error) {
	startTime := s.now()

	batch, err := s.source.FetchRows(ctx)
	if err != nil {
		var loadErr *domain.LoadError
		if errors.As(err, &loadErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, domain.NewSourceUnavailableError(err.Error(), err)
	}
	if batch == nil || len(batch.Rows) == 0 {
		return nil, domain.NewSourceUnavailableError("source returned no rows", nil)
	}

	rows := external.FilterRows(batch.Rows)
	if len(rows) == 0 {
		return nil, domain.NewNoValidRowsError(string(batch.Origin)+" source", len(batch.Rows))
	}

	specs := s.config.Biomarkers
	selected, missing := SelectRows(rows, specs)
	if len(missing) > 0 {
		loadErr := domain.NewRequiredBiomarkerMissingError(missing, len(batch.Rows), len(rows), rowNames(rows))
		s.logger.WithFields(logrus.Fields{
			"missing":       missing,
			"total_rows":    len(batch.Rows),
			"filtered_rows": len(rows),
			"origin":        batch.Origin,
		}).Error("Required biomarkers not found")
		return nil, loadErr
	}

	demographic := s.config.Demographic
	if len(specs) > 0 {
		demographic = biomarker.ResolveDemographic(selected[specs[0].Key], s.config.Demographic, s.config.DemographicCandidates)
	}

	views := make([]domain.BiomarkerView, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			views[i] = s.buildView(spec, selected[spec.Key], spec.CurrentValue, demographic)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building biomarker entities: %w", err)
	}

	snap := &domain.Snapshot{
		ID:          s.newID(),
		LoadedAt:    s.now().UTC(),
		Origin:      batch.Origin,
		Demographic: demographic,
		Biomarkers:  views,
	}

	s.logger.WithFields(logrus.Fields{
		"snapshot_id":     snap.ID,
		"origin":          snap.Origin,
		"demographic":     demographic,
		"biomarkers":      len(views),
		"processing_time": s.now().Sub(startTime),
	}).Info("Biomarker snapshot loaded")

	return snap, nil
}

// Normalize builds a single view from a caller-supplied row, outside any load cycle.
func (s *DashboardService) Normalize(row domain.RawRow, value float64, demographic string) domain.BiomarkerView {
	if demographic == "" {
		demographic = biomarker.ResolveDemographic(row, s.config.Demographic, s.config.DemographicCandidates)
	}
	return s.buildView(domain.BiomarkerSpec{}, row, value, demographic)
}

func (s *DashboardService) buildView(spec domain.BiomarkerSpec, row domain.RawRow, value float64, demographic string) domain.BiomarkerView {
	entity := s.normalizer.Build(row, value, demographic)
	if spec.DisplayName != "" {
		entity.Name = spec.DisplayName
	}
	return domain.BiomarkerView{
		Key:       spec.Key,
		Entity:    entity,
		Indicator: biomarker.Indicator(entity),
	}
}

func (s *DashboardService) cacheKey() string {
	return snapshotCacheKeyPrefix + s.config.Demographic
}
