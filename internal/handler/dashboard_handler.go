package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/dashboard"
	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

type dashboardService interface {
	Mount(ctx context.Context, ws *service.Workspace, refresh bool) dashboard.Snapshot
	SetRange(ctx context.Context, ws *service.Workspace, kind models.SeriesKind, days int) (dashboard.Series, error)
}

// DashboardHandler wires the super-admin dashboard.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

type rangePayload struct {
	Days int `json:"days" binding:"required"`
}

// Get godoc
// @Summary Super-admin dashboard
// @Description Summary cards and both growth series. Each section loads independently; a failed section carries its own error.
// @Tags Dashboard
// @Produce json
// @Param refresh query bool false "Bypass cached sections"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	refresh, err := boolQuery(c, "refresh")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	snapshot := h.service.Mount(c.Request.Context(), ws, refresh)
	middleware.SetMeta(c, "mount_ms", time.Since(start).Milliseconds())
	response.JSON(c, http.StatusOK, snapshot, nil, middleware.ExtractMeta(c))
}

// SetRange godoc
// @Summary Change a dashboard series range
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param kind path string true "transaction-growth or user-growth"
// @Param payload body rangePayload true "Range in days (7, 14, 30 or 90)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin/dashboard/series/{kind} [put]
func (h *DashboardHandler) SetRange(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload rangePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Validation(err, "days is required"))
		return
	}
	series, err := h.service.SetRange(c.Request.Context(), ws, models.SeriesKind(c.Param("kind")), payload.Days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, series, nil)
}
