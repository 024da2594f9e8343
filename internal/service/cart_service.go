package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/cart"
	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

// CatalogSourceStatic serves the built-in catalog instead of the backend's.
const CatalogSourceStatic = "static"

type catalogGateway interface {
	Courses(ctx context.Context) ([]models.Course, error)
}

// CartConfig tunes pricing and catalog sourcing.
type CartConfig struct {
	UnitRate      int64
	CatalogSource string
	CacheTTL      time.Duration
}

// CartService drives the course registration cart of a workspace.
type CartService struct {
	gateway catalogGateway
	cache   *CacheService
	cfg     CartConfig
	logger  *zap.Logger
}

// NewCartService constructs a CartService.
func NewCartService(gw catalogGateway, cache *CacheService, cfg CartConfig, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UnitRate <= 0 {
		cfg.UnitRate = cart.DefaultUnitRate
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &CartService{gateway: gw, cache: cache, cfg: cfg, logger: logger}
}

// Session returns the cart of the workspace, loading the catalog on first use.
func (s *CartService) Session(ctx context.Context, ws *Workspace) (*cart.Session, error) {
	if c := ws.Cart(); c != nil {
		return c, nil
	}
	catalog, err := s.catalog(ctx, ws)
	if err != nil {
		return nil, err
	}
	return ws.SetCart(cart.NewSession(catalog, s.cfg.UnitRate)), nil
}

func (s *CartService) catalog(ctx context.Context, ws *Workspace) (*cart.Catalog, error) {
	if s.cfg.CatalogSource == CatalogSourceStatic || s.gateway == nil {
		catalog, err := cart.DefaultCatalog()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course catalog")
		}
		return catalog, nil
	}

	bound, cancel := ws.Bind(ctx)
	defer cancel()
	courses, hit, err := remember(bound, s.cache, CacheKey{Group: cacheGroupCatalog, Name: "courses"}, s.cfg.CacheTTL, s.gateway.Courses)
	if err != nil {
		s.logger.Warn("course catalog load failed", zap.String("session_id", ws.ID), zap.Error(err))
		return nil, err
	}
	catalog, err := cart.NewCatalog(courses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "backend returned an invalid course catalog")
	}
	s.logger.Debug("course catalog loaded", zap.Int("courses", catalog.Len()), zap.Bool("cache_hit", hit))
	return catalog, nil
}

// View returns the current cart.
func (s *CartService) View(ctx context.Context, ws *Workspace) (cart.View, error) {
	return s.apply(ctx, ws, func(*cart.Session) error { return nil })
}

// OpenPicker starts browsing with an empty selection.
func (s *CartService) OpenPicker(ctx context.Context, ws *Workspace) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error { return c.Open() })
}

// Search narrows the visible catalog of the open picker.
func (s *CartService) Search(ctx context.Context, ws *Workspace, query string) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error {
		_, err := c.Search(query)
		return err
	})
}

// Toggle flips one course in the picker selection.
func (s *CartService) Toggle(ctx context.Context, ws *Workspace, code string) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error {
		_, err := c.Toggle(code)
		return err
	})
}

// Commit merges the selection into the previewed list and closes the picker.
func (s *CartService) Commit(ctx context.Context, ws *Workspace) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error {
		added, err := c.Commit()
		if err == nil {
			s.logger.Debug("courses added", zap.String("session_id", ws.ID), zap.Int("added", added))
		}
		return err
	})
}

// CancelPicker closes the picker without merging.
func (s *CartService) CancelPicker(ctx context.Context, ws *Workspace) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error {
		c.Cancel()
		return nil
	})
}

// Remove drops one previewed course.
func (s *CartService) Remove(ctx context.Context, ws *Workspace, code string) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error {
		if !c.Remove(code) {
			return appErrors.Clone(appErrors.ErrNotFound, "course is not in the registration list")
		}
		return nil
	})
}

// RemoveAll clears the previewed list.
func (s *CartService) RemoveAll(ctx context.Context, ws *Workspace) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error {
		c.RemoveAll()
		return nil
	})
}

// BeginConfirmation opens the confirmation overlay.
func (s *CartService) BeginConfirmation(ctx context.Context, ws *Workspace) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error {
		_, err := c.BeginConfirmation()
		return err
	})
}

// CancelConfirmation returns to the registration form with the list intact.
func (s *CartService) CancelConfirmation(ctx context.Context, ws *Workspace) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error { return c.CancelConfirmation() })
}

// Reset discards the cart and any confirmed registration, starting over.
func (s *CartService) Reset(ctx context.Context, ws *Workspace) (cart.View, error) {
	return s.apply(ctx, ws, func(c *cart.Session) error {
		c.Reset()
		return nil
	})
}

func (s *CartService) apply(ctx context.Context, ws *Workspace, op func(*cart.Session) error) (cart.View, error) {
	c, err := s.Session(ctx, ws)
	if err != nil {
		return cart.View{}, err
	}
	if err := op(c); err != nil {
		return cart.View{}, cartError(err)
	}
	return c.Snapshot(), nil
}

// cartError maps state machine guards onto API errors.
func cartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrUnknownCourse):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course is not in the catalog")
	case errors.Is(err, cart.ErrNotBrowsing):
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "open the course picker first")
	case errors.Is(err, cart.ErrNothingSelected):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "select at least one course")
	case errors.Is(err, cart.ErrEmptyCart):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "add at least one course before registering")
	case errors.Is(err, cart.ErrWrongStep):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "action not available at this step")
	default:
		return err
	}
}
