package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func workspaceFromContext(c *gin.Context) (*service.Workspace, error) {
	ws := middleware.Workspace(c)
	if ws == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return ws, nil
}

// listQuery reads search, category, page and refresh. An absent search or
// category keeps the table's current filter.
func listQuery(c *gin.Context) (service.ListQuery, error) {
	var q service.ListQuery
	if search, ok := c.GetQuery("search"); ok {
		q.Search = &search
	}
	if category, ok := c.GetQuery("category"); ok {
		q.Category = &category
	}
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return q, appErrors.Clone(appErrors.ErrValidation, "page must be a positive integer")
		}
		q.Page = page
	}
	refresh, err := boolQuery(c, "refresh")
	if err != nil {
		return q, err
	}
	q.Refresh = refresh
	return q, nil
}

func boolQuery(c *gin.Context, key string) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, key+" must be a boolean")
	}
	return value, nil
}
