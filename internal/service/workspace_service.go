package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/appctx"
	"github.com/noah-isme/uniportal-api/internal/cart"
	"github.com/noah-isme/uniportal-api/internal/dashboard"
	"github.com/noah-isme/uniportal-api/internal/gateway"
	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/listing"
)

// Workspace is the server-side UI state of one signed-in session.
type Workspace struct {
	ID string

	appCtx *appctx.Context
	board  *dashboard.Board

	Universities *listing.Table[models.University]
	Payments     *listing.Table[models.Payment]
	Activity     *listing.Table[models.ActivityLog]
	Students     *listing.Table[models.Student]

	mu            sync.Mutex
	cart          *cart.Session
	paymentTotals models.PaymentList
	lastSeen      time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func newWorkspace(id string, c *appctx.Context, specs TableSpecs, now time.Time) *Workspace {
	ctx, cancel := context.WithCancel(context.Background())
	return &Workspace{
		ID:           id,
		appCtx:       c,
		board:        dashboard.NewBoard(),
		Universities: listing.NewTable(specs.Universities),
		Payments:     listing.NewTable(specs.Payments),
		Activity:     listing.NewTable(specs.Activity),
		Students:     listing.NewTable(specs.Students),
		lastSeen:     now,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Context returns the application context of the session.
func (w *Workspace) Context() *appctx.Context {
	return w.appCtx
}

// Board returns the dashboard state.
func (w *Workspace) Board() *dashboard.Board {
	return w.board
}

// Cart returns the course cart, or nil before the catalog was loaded.
func (w *Workspace) Cart() *cart.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cart
}

// SetCart installs a cart unless one already exists and returns the resident cart.
func (w *Workspace) SetCart(s *cart.Session) *cart.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cart == nil {
		w.cart = s
	}
	return w.cart
}

// PaymentTotals returns the totals reported with the last payments fetch.
func (w *Workspace) PaymentTotals() (float64, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paymentTotals.TotalRevenue, w.paymentTotals.Count
}

func (w *Workspace) setPaymentTotals(list models.PaymentList) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paymentTotals = models.PaymentList{TotalRevenue: list.TotalRevenue, Count: list.Count}
}

// Bind derives a context for backend calls made on behalf of the session: it
// carries the bearer token and is cancelled when the workspace is evicted.
func (w *Workspace) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.ctx, cancel)
	return gateway.ContextWithToken(bound, w.appCtx.Token()), func() {
		stop()
		cancel()
	}
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

func (w *Workspace) close() {
	w.cancel()
	w.board.Reset()
	if c := w.Cart(); c != nil {
		c.Reset()
	}
}

// WorkspaceConfig tunes workspace lifetime.
type WorkspaceConfig struct {
	TTL             time.Duration
	JanitorInterval time.Duration
}

// WorkspaceManager owns the resident workspaces. Workspaces not touched for
// TTL are evicted; their application context stays in the store until it expires.
type WorkspaceManager struct {
	mu      sync.Mutex
	items   map[string]*Workspace
	store   appctx.Store
	specs   TableSpecs
	cfg     WorkspaceConfig
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewWorkspaceManager constructs a WorkspaceManager.
func NewWorkspaceManager(store appctx.Store, specs TableSpecs, cfg WorkspaceConfig, metrics *MetricsService, logger *zap.Logger) *WorkspaceManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = appctx.NewMemoryStore()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = 5 * time.Minute
	}
	return &WorkspaceManager{
		items:   map[string]*Workspace{},
		store:   store,
		specs:   specs,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Create opens a new session.
func (m *WorkspaceManager) Create(ctx context.Context) (*Workspace, error) {
	id := uuid.NewString()
	c, err := appctx.Open(ctx, m.store, id, m.cfg.TTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open session")
	}
	ws := newWorkspace(id, c, m.specs, m.now())
	m.mu.Lock()
	m.items[id] = ws
	count := len(m.items)
	m.mu.Unlock()
	m.metrics.SetWorkspaces(count)
	return ws, nil
}

// Get returns the workspace of a session, rehydrating it from the store when
// it is not resident. An unknown or signed-out session is unauthorized.
func (m *WorkspaceManager) Get(ctx context.Context, id string) (*Workspace, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing session")
	}
	m.mu.Lock()
	ws, ok := m.items[id]
	m.mu.Unlock()
	if ok {
		ws.touch(m.now())
		return ws, nil
	}

	state, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, appctx.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if state.Token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session signed out")
	}
	c, err := appctx.Open(ctx, m.store, id, m.cfg.TTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open session")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.items[id]; ok {
		return existing, nil
	}
	ws = newWorkspace(id, c, m.specs, m.now())
	m.items[id] = ws
	m.metrics.SetWorkspaces(len(m.items))
	m.logger.Debug("workspace rehydrated", zap.String("session_id", id))
	return ws, nil
}

// Remove evicts a workspace and cancels its in-flight backend calls.
func (m *WorkspaceManager) Remove(id string) {
	m.mu.Lock()
	ws, ok := m.items[id]
	delete(m.items, id)
	count := len(m.items)
	m.mu.Unlock()
	if ok {
		ws.close()
	}
	m.metrics.SetWorkspaces(count)
}

// Len reports the number of resident workspaces.
func (m *WorkspaceManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Sweep evicts workspaces idle for longer than the TTL and returns how many were removed.
func (m *WorkspaceManager) Sweep() int {
	cutoff := m.now().Add(-m.cfg.TTL)
	m.mu.Lock()
	var idle []*Workspace
	for id, ws := range m.items {
		if ws.idleSince().Before(cutoff) {
			idle = append(idle, ws)
			delete(m.items, id)
		}
	}
	count := len(m.items)
	m.mu.Unlock()

	for _, ws := range idle {
		ws.close()
	}
	m.metrics.SetWorkspaces(count)
	if len(idle) > 0 {
		m.logger.Info("idle workspaces evicted", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps on the janitor interval until ctx is done.
func (m *WorkspaceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
