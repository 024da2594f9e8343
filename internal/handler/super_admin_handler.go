package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

type superAdminTables interface {
	Universities(ctx context.Context, ws *service.Workspace, q service.ListQuery) (*service.TableView[models.University], error)
	CreateUniversity(ctx context.Context, ws *service.Workspace, req models.CreateUniversityRequest) (*models.University, error)
	Payments(ctx context.Context, ws *service.Workspace, q service.ListQuery) (*service.PaymentsView, error)
	ActivityLogs(ctx context.Context, ws *service.Workspace, q service.ListQuery) (*service.TableView[models.ActivityLog], error)
}

// SuperAdminHandler serves the super-admin tables.
type SuperAdminHandler struct {
	tables superAdminTables
}

// NewSuperAdminHandler constructs the handler.
func NewSuperAdminHandler(tables superAdminTables) *SuperAdminHandler {
	return &SuperAdminHandler{tables: tables}
}

// Universities godoc
// @Summary List universities
// @Tags SuperAdmin
// @Produce json
// @Param search query string false "Search by name, code or email"
// @Param category query string false "Status filter, all to clear"
// @Param page query int false "Page"
// @Param refresh query bool false "Refetch from the backend"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin/universities [get]
func (h *SuperAdminHandler) Universities(c *gin.Context) {
	ws, q, ok := h.prepare(c)
	if !ok {
		return
	}
	view, err := h.tables.Universities(c.Request.Context(), ws, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTable(c, view, view.Pagination(), view.Fetched)
}

// CreateUniversity godoc
// @Summary Onboard a university
// @Tags SuperAdmin
// @Accept json
// @Produce json
// @Param payload body models.CreateUniversityRequest true "University"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin/universities [post]
func (h *SuperAdminHandler) CreateUniversity(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateUniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid university payload"))
		return
	}
	university, err := h.tables.CreateUniversity(c.Request.Context(), ws, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, university)
}

// Payments godoc
// @Summary List payments
// @Tags SuperAdmin
// @Produce json
// @Param search query string false "Search by transaction, student or university"
// @Param category query string false "Payment status, all to clear"
// @Param page query int false "Page"
// @Param refresh query bool false "Refetch from the backend"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin/payments [get]
func (h *SuperAdminHandler) Payments(c *gin.Context) {
	ws, q, ok := h.prepare(c)
	if !ok {
		return
	}
	view, err := h.tables.Payments(c.Request.Context(), ws, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTable(c, view, view.Pagination(), view.Fetched)
}

// ActivityLogs godoc
// @Summary List activity logs
// @Tags SuperAdmin
// @Produce json
// @Param search query string false "Search by actor, action or target"
// @Param page query int false "Page"
// @Param refresh query bool false "Refetch from the backend"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin/activity-logs [get]
func (h *SuperAdminHandler) ActivityLogs(c *gin.Context) {
	ws, q, ok := h.prepare(c)
	if !ok {
		return
	}
	view, err := h.tables.ActivityLogs(c.Request.Context(), ws, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTable(c, view, view.Pagination(), view.Fetched)
}

func (h *SuperAdminHandler) prepare(c *gin.Context) (*service.Workspace, service.ListQuery, bool) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return nil, service.ListQuery{}, false
	}
	q, err := listQuery(c)
	if err != nil {
		response.Error(c, err)
		return nil, q, false
	}
	return ws, q, true
}

func respondTable(c *gin.Context, view interface{}, pagination *models.Pagination, fetched bool) {
	middleware.SetSource(c, fetched)
	middleware.SetMeta(c, "summary", pagination.Summary)
	response.JSON(c, http.StatusOK, view, pagination, middleware.ExtractMeta(c))
}
