// Package app assembles the portal API from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/appctx"
	"github.com/noah-isme/uniportal-api/internal/gateway"
	"github.com/noah-isme/uniportal-api/internal/handler"
	"github.com/noah-isme/uniportal-api/internal/payment"
	"github.com/noah-isme/uniportal-api/internal/repository"
	"github.com/noah-isme/uniportal-api/internal/service"
	"github.com/noah-isme/uniportal-api/pkg/cache"
	"github.com/noah-isme/uniportal-api/pkg/config"
	"github.com/noah-isme/uniportal-api/pkg/database"
	"github.com/noah-isme/uniportal-api/pkg/export"
	"github.com/noah-isme/uniportal-api/pkg/jobs"
	"github.com/noah-isme/uniportal-api/pkg/storage"
)

const (
	cachePrefix   = "uniportal"
	sessionPrefix = "uniportal:session"
)

// App holds the wired services and the background workers they need.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	Router     *gin.Engine
	Metrics    *service.MetricsService
	Workspaces *service.WorkspaceManager

	db      *sqlx.DB
	redis   *redis.Client
	queue   *jobs.Queue
	resumer submissionResumer
	slips   *storage.LocalStorage
	cancel  context.CancelFunc
}

type submissionResumer interface {
	ResumeSubmissions(ctx context.Context) (int, error)
}

// New connects the optional stores and builds the router.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, Metrics: service.NewMetricsService()}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis, a.Metrics)
		if err != nil {
			return nil, err
		}
		a.redis = client
	}

	gw := gateway.New(cfg.Upstream.BaseURL, gateway.DefaultHTTPClient(cfg.Upstream.Timeout), logger.Named("gateway"), a.Metrics)
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if a.redis != nil {
		cacheRepo = repository.NewCacheRepository(a.redis, cachePrefix, logger)
	}
	cacheSvc := service.NewCacheService(cacheRepo, a.Metrics, cfg.Dashboard.CacheTTL, logger, a.redis != nil)

	var store appctx.Store = appctx.NewMemoryStore()
	if cfg.Session.Store == "redis" {
		if a.redis == nil {
			a.Close()
			return nil, fmt.Errorf("SESSION_STORE=redis requires ENABLE_REDIS=true")
		}
		store = repository.NewSessionRepository(a.redis, sessionPrefix)
	}
	a.Workspaces = service.NewWorkspaceManager(store, service.NewTableSpecs(cfg.Listing), service.WorkspaceConfig{
		TTL:             cfg.Session.TTL,
		JanitorInterval: cfg.Session.JanitorInterval,
	}, a.Metrics, logger.Named("workspaces"))

	auth := service.NewAuthService(gw, a.Workspaces, validate, logger.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	tables := service.NewTableService(gw, validate, logger.Named("tables"))
	carts := service.NewCartService(gw, cacheSvc, service.CartConfig{
		UnitRate:      cfg.Cart.UnitRate,
		CatalogSource: cfg.Cart.CatalogSource,
		CacheTTL:      cfg.Reference.CacheTTL,
	}, logger.Named("cart"))
	dashboards := service.NewDashboardService(gw, cacheSvc, service.DashboardServiceConfig{
		CacheTTL:         cfg.Dashboard.CacheTTL,
		DefaultRangeDays: cfg.Dashboard.DefaultRangeDays,
	}, logger.Named("dashboard"))
	references := service.NewReferenceService(gw, cacheSvc, cfg.Reference.CacheTTL, logger.Named("reference"))
	exports := service.NewExportService(tables, export.NewCSVExporter(export.WithByteOrderMark()), export.NewPDFExporter(), logger.Named("export"))

	checkout, err := a.checkout(ctx, gw, validate)
	if err != nil {
		a.Close()
		return nil, err
	}

	checks := map[string]handler.ReadinessCheck{}
	if a.db != nil {
		checks["database"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	h := handlers{
		auth:         handler.NewAuthHandler(auth),
		superAdmin:   handler.NewSuperAdminHandler(tables),
		students:     handler.NewStudentHandler(tables, exports),
		dashboard:    handler.NewDashboardHandler(dashboards),
		reference:    handler.NewReferenceHandler(references),
		metrics:      handler.NewMetricsHandler(a.Metrics, checks),
		registration: handler.NewRegistrationHandler(carts, nil),
		payments:     handler.NewPaymentHandler(nil, nil, logger.Named("payments")),
	}
	if checkout != nil {
		h.registration = handler.NewRegistrationHandler(carts, checkout)
		h.payments = handler.NewPaymentHandler(checkout, checkout, logger.Named("payments"))
	}
	a.Router = newRouter(cfg, logger, a.Metrics, auth, a.Workspaces, h)
	return a, nil
}

// checkout wires registration persistence, the payment provider and the
// submission queue. It returns nil when the database is disabled.
func (a *App) checkout(ctx context.Context, gw *gateway.Client, validate *validator.Validate) (*service.CheckoutService, error) {
	cfg := a.cfg
	if !cfg.Database.Enabled {
		a.logger.Info("database disabled; checkout routes will report FEATURE_DISABLED")
		return nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := database.Migrate(ctx, db); err != nil {
		return nil, err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	slips, err := storage.NewLocalStorage(cfg.Slips.StorageDir)
	if err != nil {
		return nil, err
	}
	a.slips = slips

	checkout := service.NewCheckoutService(
		repository.NewRegistrationRepository(db).WithObserver(a.Metrics),
		provider,
		gw,
		slips,
		export.NewPDFExporter(),
		storage.NewSigner(cfg.Slips.SignedURLSecret, cfg.Slips.SignedURLTTL),
		validate,
		a.logger.Named("checkout"),
		service.CheckoutConfig{
			Currency:     cfg.Payments.Currency,
			APIPrefix:    cfg.APIPrefix,
			ServiceToken: cfg.Upstream.ServiceToken,
		},
	)
	a.queue = jobs.NewQueue("registration-submission", checkout.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Payments.WorkerConcurrency,
		MaxRetries: cfg.Payments.WorkerRetries,
		RetryDelay: 5 * time.Second,
		MaxDelay:   2 * time.Minute,
		OnResult:   func(job jobs.Job, err error) { a.Metrics.RecordJob(job.Type, err) },
		Logger:     a.logger,
	})
	checkout.AttachQueue(a.queue)
	a.resumer = checkout
	a.logger.Info("checkout enabled", zap.String("provider", provider.Name()))
	return checkout, nil
}

func newProvider(cfg *config.Config) (payment.Provider, error) {
	switch cfg.Payments.Provider {
	case payment.ProviderMidtrans:
		provider, err := payment.NewMidtransProvider(cfg.Payments.MidtransServerKey, cfg.Payments.MidtransProd)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case payment.ProviderMock, "":
		key := cfg.Payments.MidtransServerKey
		if key == "" {
			key = cfg.Slips.SignedURLSecret
		}
		return payment.NewMockProvider(key, ""), nil
	default:
		return nil, fmt.Errorf("unknown PAYMENT_PROVIDER %q", cfg.Payments.Provider)
	}
}

// Start launches the workspace janitor, the submission queue and slip
// cleanup, then requeues paid registrations left unsubmitted by a restart.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	go a.Workspaces.Run(ctx)
	if a.queue != nil {
		a.queue.Start(ctx)
		if a.resumer != nil {
			go a.resumeSubmissions(ctx)
		}
	}
	if a.slips != nil && a.cfg.Slips.Retention > 0 {
		go a.cleanupSlips(ctx)
	}
}

func (a *App) resumeSubmissions(ctx context.Context) {
	queued, err := a.resumer.ResumeSubmissions(ctx)
	if err != nil {
		a.logger.Error("failed to resume registration submissions", zap.Int("queued", queued), zap.Error(err))
	}
}

func (a *App) cleanupSlips(ctx context.Context) {
	interval := a.cfg.Slips.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.slips.CleanupOlderThan(a.cfg.Slips.Retention)
			if err != nil {
				a.logger.Warn("slip cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				a.logger.Info("expired slips removed", zap.Int("count", len(removed)))
			}
		}
	}
}

// Close stops background work and releases connections.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.queue != nil {
		a.queue.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
}
