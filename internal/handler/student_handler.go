package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

type studentTables interface {
	Students(ctx context.Context, ws *service.Workspace, app models.App, q service.ListQuery) (*service.TableView[models.Student], error)
}

type studentExporter interface {
	Students(ctx context.Context, ws *service.Workspace, app models.App, q service.ListQuery, format string) (*service.ExportFile, error)
}

// StudentHandler serves the admin student tables.
type StudentHandler struct {
	tables  studentTables
	exports studentExporter
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(tables studentTables, exports studentExporter) *StudentHandler {
	return &StudentHandler{tables: tables, exports: exports}
}

// List godoc
// @Summary List students
// @Description Department admins see only their department; "all" shows every student they may see
// @Tags Students
// @Produce json
// @Param app path string true "university-admin or department-admin"
// @Param search query string false "Search by name, matric number or email"
// @Param category query string false "Department, all to clear"
// @Param page query int false "Page"
// @Param refresh query bool false "Refetch from the backend"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /{app}/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	app, _ := models.ParseApp(c.Param("app"))
	q, err := listQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.tables.Students(c.Request.Context(), ws, app, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondTable(c, view, view.Pagination(), view.Fetched)
}

// Export godoc
// @Summary Export the filtered student list
// @Tags Students
// @Produce octet-stream
// @Param app path string true "university-admin or department-admin"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /{app}/students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	ws, err := workspaceFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	app, _ := models.ParseApp(c.Param("app"))
	q, err := listQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", service.FormatCSV)))
	file, err := h.exports.Students(c.Request.Context(), ws, app, q, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
