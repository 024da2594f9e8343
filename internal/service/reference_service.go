package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type referenceGateway interface {
	Reference(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error)
}

type referenceEntry struct {
	items    []models.ReferenceItem
	names    map[string]string
	loadedAt time.Time
}

// ReferenceService serves programs, levels and departments. Lists are kept
// in process and in the shared cache for the configured TTL.
type ReferenceService struct {
	gateway referenceGateway
	cache   *CacheService
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	entries map[models.ReferenceKind]referenceEntry
}

// NewReferenceService constructs a ReferenceService.
func NewReferenceService(gw referenceGateway, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ReferenceService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{
		gateway: gw,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: map[models.ReferenceKind]referenceEntry{},
	}
}

// List returns every item of kind.
func (s *ReferenceService) List(ctx context.Context, ws *Workspace, kind models.ReferenceKind) ([]models.ReferenceItem, error) {
	entry, err := s.entry(ctx, ws, kind)
	if err != nil {
		return nil, err
	}
	return append([]models.ReferenceItem(nil), entry.items...), nil
}

// Name resolves an identifier of kind to its display name.
func (s *ReferenceService) Name(ctx context.Context, ws *Workspace, kind models.ReferenceKind, id string) (string, error) {
	entry, err := s.entry(ctx, ws, kind)
	if err != nil {
		return "", err
	}
	name, ok := entry.names[id]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown %s id %q", kind, id))
	}
	return name, nil
}

// Invalidate drops every cached reference list.
func (s *ReferenceService) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.entries = map[models.ReferenceKind]referenceEntry{}
	s.mu.Unlock()
	return s.cache.Invalidate(ctx, cacheGroupReference)
}

func (s *ReferenceService) entry(ctx context.Context, ws *Workspace, kind models.ReferenceKind) (referenceEntry, error) {
	if !kind.Valid() {
		return referenceEntry{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown reference data %q", kind))
	}
	s.mu.RLock()
	entry, ok := s.entries[kind]
	s.mu.RUnlock()
	if ok && s.now().Sub(entry.loadedAt) < s.ttl {
		return entry, nil
	}

	bound, cancel := ws.Bind(ctx)
	defer cancel()
	items, hit, err := remember(bound, s.cache, CacheKey{Group: cacheGroupReference, Name: string(kind)}, s.ttl, func(ctx context.Context) ([]models.ReferenceItem, error) {
		return s.gateway.Reference(ctx, kind)
	})
	if err != nil {
		s.logger.Warn("reference data unavailable", zap.String("kind", string(kind)), zap.Error(err))
		return referenceEntry{}, err
	}

	entry = referenceEntry{items: items, names: make(map[string]string, len(items)), loadedAt: s.now()}
	for _, item := range items {
		entry.names[item.ID] = item.Name
	}
	s.mu.Lock()
	s.entries[kind] = entry
	s.mu.Unlock()
	s.logger.Debug("reference data loaded", zap.String("kind", string(kind)), zap.Int("items", len(items)), zap.Bool("cache_hit", hit))
	return entry, nil
}
