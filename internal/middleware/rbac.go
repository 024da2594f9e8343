package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

// RequireRoles admits only the listed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireApp admits a request only when the :app path segment names one of
// apps and matches the app the user signed in through.
func RequireApp(apps ...models.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		app, ok := models.ParseApp(c.Param("app"))
		if !ok || !containsApp(apps, app) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown portal app"))
			c.Abort()
			return
		}
		if claims.App != app {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func containsApp(apps []models.App, app models.App) bool {
	for _, a := range apps {
		if a == app {
			return true
		}
	}
	return false
}
