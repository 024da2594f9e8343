package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/listing"
)

type tableGateway interface {
	Universities(ctx context.Context) ([]models.University, error)
	CreateUniversity(ctx context.Context, req models.CreateUniversityRequest) (*models.University, error)
	Payments(ctx context.Context) (*models.PaymentList, error)
	ActivityLogs(ctx context.Context) ([]models.ActivityLog, error)
	Students(ctx context.Context, app models.App) ([]models.Student, error)
}

// ListQuery is one request against a table view.
type ListQuery struct {
	Search   *string
	Category *string
	Page     int
	Refresh  bool
}

func (q ListQuery) listing() listing.Query {
	return listing.Query{Search: q.Search, Category: q.Category, Page: q.Page}
}

// TableView is a rendered page together with the state that produced it.
type TableView[T any] struct {
	Page       listing.Page[T] `json:"page"`
	State      listing.State   `json:"state"`
	Categories []string        `json:"categories"`
	Summary    string          `json:"summary"`
	LoadedAt   time.Time       `json:"loaded_at"`
	// Fetched is set when this request triggered the backend call.
	Fetched    bool            `json:"-"`
}

// Pagination converts the page into the envelope pagination block.
func (v TableView[T]) Pagination() *models.Pagination {
	return &models.Pagination{
		Page:       v.Page.Page,
		PageSize:   v.Page.PageSize,
		TotalCount: v.Page.Total,
		TotalPages: v.Page.TotalPages,
		From:       v.Page.From,
		To:         v.Page.To,
		Summary:    v.Summary,
	}
}

// PaymentsView adds the backend totals to the payments table.
type PaymentsView struct {
	TableView[models.Payment]
	TotalRevenue float64 `json:"totalRevenue"`
	Count        int     `json:"count"`
}

// TableService serves the list views. Each collection is fetched once per
// session and kept resident; filtering and paging never call the backend.
type TableService struct {
	gateway   tableGateway
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTableService constructs a TableService.
func NewTableService(gw tableGateway, validate *validator.Validate, logger *zap.Logger) *TableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TableService{gateway: gw, validator: validate, logger: logger}
}

// Universities renders the universities table.
func (s *TableService) Universities(ctx context.Context, ws *Workspace, q ListQuery) (*TableView[models.University], error) {
	fetched, err := loadTable(ctx, ws, ws.Universities, q.Refresh, s.logger, "universities", s.gateway.Universities)
	if err != nil {
		return nil, err
	}
	return render(ws.Universities, q, "universities", fetched), nil
}

// CreateUniversity validates the onboarding form, submits it and marks the
// universities table stale.
func (s *TableService) CreateUniversity(ctx context.Context, ws *Workspace, req models.CreateUniversityRequest) (*models.University, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid university payload")
	}
	bound, cancel := ws.Bind(ctx)
	defer cancel()
	created, err := s.gateway.CreateUniversity(bound, req)
	if err != nil {
		return nil, err
	}
	ws.Universities.Invalidate()
	s.logger.Info("university created", zap.String("code", created.Code), zap.String("session_id", ws.ID))
	return created, nil
}

// Payments renders the payments table with its totals.
func (s *TableService) Payments(ctx context.Context, ws *Workspace, q ListQuery) (*PaymentsView, error) {
	fetch := func(ctx context.Context) ([]models.Payment, error) {
		list, err := s.gateway.Payments(ctx)
		if err != nil {
			return nil, err
		}
		ws.setPaymentTotals(*list)
		return list.Payments, nil
	}
	fetched, err := loadTable(ctx, ws, ws.Payments, q.Refresh, s.logger, "payments", fetch)
	if err != nil {
		return nil, err
	}
	revenue, count := ws.PaymentTotals()
	return &PaymentsView{
		TableView:    *render(ws.Payments, q, "payments", fetched),
		TotalRevenue: revenue,
		Count:        count,
	}, nil
}

// ActivityLogs renders the activity log table.
func (s *TableService) ActivityLogs(ctx context.Context, ws *Workspace, q ListQuery) (*TableView[models.ActivityLog], error) {
	fetched, err := loadTable(ctx, ws, ws.Activity, q.Refresh, s.logger, "activity_logs", s.gateway.ActivityLogs)
	if err != nil {
		return nil, err
	}
	return render(ws.Activity, q, "entries", fetched), nil
}

// Students renders the students table of an admin app.
func (s *TableService) Students(ctx context.Context, ws *Workspace, app models.App, q ListQuery) (*TableView[models.Student], error) {
	fetch := func(ctx context.Context) ([]models.Student, error) {
		return s.gateway.Students(ctx, app)
	}
	fetched, err := loadTable(ctx, ws, ws.Students, q.Refresh, s.logger, "students", fetch)
	if err != nil {
		return nil, err
	}
	return render(ws.Students, q, "students", fetched), nil
}

// FilteredStudents applies q and returns every matching student, ignoring pagination.
func (s *TableService) FilteredStudents(ctx context.Context, ws *Workspace, app models.App, q ListQuery) ([]models.Student, error) {
	if _, err := s.Students(ctx, ws, app, q); err != nil {
		return nil, err
	}
	return ws.Students.Filtered(), nil
}

func loadTable[T any](ctx context.Context, ws *Workspace, table *listing.Table[T], refresh bool, logger *zap.Logger, name string, fetch func(context.Context) ([]T, error)) (bool, error) {
	if table.Loaded() && !refresh {
		return false, nil
	}
	gen := table.BeginLoad()
	bound, cancel := ws.Bind(ctx)
	defer cancel()
	items, err := fetch(bound)
	if err != nil {
		logger.Warn("table load failed", zap.String("table", name), zap.String("session_id", ws.ID), zap.Error(err))
		return false, err
	}
	if !table.Load(gen, items) {
		logger.Debug("stale table load discarded", zap.String("table", name), zap.String("session_id", ws.ID))
		return false, nil
	}
	return true, nil
}

func render[T any](table *listing.Table[T], q ListQuery, noun string, fetched bool) *TableView[T] {
	page := table.Apply(q.listing())
	if page.Items == nil {
		page.Items = []T{}
	}
	return &TableView[T]{
		Page:       page,
		State:      table.State(),
		Categories: table.Categories(),
		Summary:    page.Summary(noun),
		LoadedAt:   table.LoadedAt(),
		Fetched:    fetched,
	}
}
