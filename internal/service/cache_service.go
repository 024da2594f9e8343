package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

// Snapshot groups. Invalidation always drops a whole group.
const (
	cacheGroupCatalog   = "catalog"
	cacheGroupReference = "reference"
	cacheGroupDashboard = "dashboard"
)

// CacheKey names one cached upstream snapshot.
type CacheKey struct {
	Group string
	Name  string
}

func (k CacheKey) String() string { return k.Group + "/" + k.Name }

// CacheRepository persists snapshots by group.
type CacheRepository interface {
	Get(ctx context.Context, group, name string, dest interface{}) error
	Put(ctx context.Context, group, name string, value interface{}, ttl time.Duration) error
	DropGroup(ctx context.Context, group string) error
}

// CacheService fronts the snapshot store with metrics and a default TTL.
// A nil or disabled service behaves as a permanent miss.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get decodes the snapshot under key into dest and reports whether it existed.
// A miss is not an error.
func (s *CacheService) Get(ctx context.Context, key CacheKey, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key.Group, key.Name, dest)
	s.metrics.RecordCacheOperation(key.Group, err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache read failed", zap.Stringer("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key CacheKey, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Put(ctx, key.Group, key.Name, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache write failed", zap.Stringer("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops every snapshot in group.
func (s *CacheService) Invalidate(ctx context.Context, group string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DropGroup(ctx, group); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("group", group), zap.Error(err))
		return err
	}
	return nil
}

// remember returns the snapshot under key or loads, stores and returns it.
// The bool reports a cache hit. Read failures fall through to load.
func remember[T any](ctx context.Context, cache *CacheService, key CacheKey, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	if hit, err := cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}
	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	_ = cache.Set(ctx, key, value, ttl)
	return value, false, nil
}
