package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

type referenceService interface {
	List(ctx context.Context, ws *service.Workspace, kind models.ReferenceKind) ([]models.ReferenceItem, error)
}

// ReferenceHandler serves programs, levels and departments.
type ReferenceHandler struct {
	service referenceService
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(svc referenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// List godoc
// @Summary Reference data
// @Tags Reference
// @Produce json
// @Param kind path string true "programs, levels or departments"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /reference/{kind} [get]
func (h *ReferenceHandler) List(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.List(c.Request.Context(), ws, models.ReferenceKind(c.Param("kind")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
