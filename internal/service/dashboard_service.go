package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/dashboard"
	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type dashboardGateway interface {
	DashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
	Series(ctx context.Context, kind models.SeriesKind, days int) ([]models.SeriesPoint, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL         time.Duration
	DefaultRangeDays int
}

// DashboardService loads the super-admin dashboard into a workspace board.
// The summary and the two growth series load concurrently and fail
// independently: a series that cannot be fetched is shown empty with its
// placeholder, a failed summary is reported on the summary section only.
type DashboardService struct {
	gateway dashboardGateway
	cache   *CacheService
	logger  *zap.Logger
	cfg     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(gw dashboardGateway, cache *CacheService, cfg DashboardServiceConfig, logger *zap.Logger) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if !dashboard.ValidRange(cfg.DefaultRangeDays) {
		cfg.DefaultRangeDays = dashboard.DefaultRangeDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{gateway: gw, cache: cache, logger: logger, cfg: cfg}
}

// Mount loads the dashboard on first use, or again when refresh is set, and
// returns the board. A mounted board is returned as is.
func (s *DashboardService) Mount(ctx context.Context, ws *Workspace, refresh bool) dashboard.Snapshot {
	board := ws.Board()
	first := board.MarkMounted()
	if !first && !refresh {
		return board.Snapshot()
	}

	bound, cancel := ws.Bind(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.loadSummary(bound, ws, refresh)
	}()
	for _, kind := range []models.SeriesKind{models.SeriesTransactionGrowth, models.SeriesUserGrowth} {
		days := board.RangeDays(kind)
		if first {
			days = s.cfg.DefaultRangeDays
		}
		go func(kind models.SeriesKind, days int) {
			defer wg.Done()
			if _, err := s.loadSeries(bound, ws, kind, days, refresh); err != nil {
				s.logger.Error("series load rejected", zap.String("kind", string(kind)), zap.Error(err))
			}
		}(kind, days)
	}
	wg.Wait()
	return board.Snapshot()
}

// SetRange reloads one series for a new window. The other series and the
// summary are not fetched again.
func (s *DashboardService) SetRange(ctx context.Context, ws *Workspace, kind models.SeriesKind, days int) (dashboard.Series, error) {
	if !kind.Valid() {
		return dashboard.Series{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown series %q", kind))
	}
	if !dashboard.ValidRange(days) {
		return dashboard.Series{}, appErrors.Wrap(dashboard.ErrInvalidRange, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, dashboard.ErrInvalidRange.Error())
	}
	ws.Board().MarkMounted()
	bound, cancel := ws.Bind(ctx)
	defer cancel()
	return s.loadSeries(bound, ws, kind, days, false)
}

func (s *DashboardService) loadSummary(ctx context.Context, ws *Workspace, refresh bool) {
	board := ws.Board()
	gen := board.BeginSummary()
	data, err := cached(ctx, s.cache, CacheKey{Group: cacheGroupDashboard, Name: "summary"}, s.cfg.CacheTTL, refresh, s.gateway.DashboardSummary)
	if err != nil {
		s.logger.Warn("dashboard summary unavailable", zap.String("session_id", ws.ID), zap.Error(err))
		err = errors.New(appErrors.FromError(err).Message)
	}
	board.CompleteSummary(gen, data, err)
}

func (s *DashboardService) loadSeries(ctx context.Context, ws *Workspace, kind models.SeriesKind, days int, refresh bool) (dashboard.Series, error) {
	board := ws.Board()
	ticket, err := board.Begin(kind, days)
	if err != nil {
		return dashboard.Series{}, err
	}
	key := CacheKey{Group: cacheGroupDashboard, Name: fmt.Sprintf("%s:%d", kind, days)}
	points, err := cached(ctx, s.cache, key, s.cfg.CacheTTL, refresh, func(ctx context.Context) ([]models.SeriesPoint, error) {
		return s.gateway.Series(ctx, kind, days)
	})
	if err != nil {
		s.logger.Warn("dashboard series unavailable",
			zap.String("session_id", ws.ID),
			zap.String("kind", string(kind)),
			zap.Int("days", days),
			zap.Error(err),
		)
	}
	if !board.Complete(ticket, points, err) {
		s.logger.Debug("stale series response discarded", zap.String("kind", string(kind)), zap.Int("days", days))
	}
	series, _ := board.Series(kind)
	return series, nil
}

// cached is remember with an option to skip the cache read.
func cached[T any](ctx context.Context, cache *CacheService, key CacheKey, ttl time.Duration, refresh bool, load func(context.Context) (T, error)) (T, error) {
	if !refresh {
		value, _, err := remember(ctx, cache, key, ttl, load)
		return value, err
	}
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	_ = cache.Set(ctx, key, value, ttl)
	return value, nil
}
