package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextWorkspaceKey is the gin context key storing the session workspace.
	ContextWorkspaceKey = "workspace"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

type workspaceResolver interface {
	Get(ctx context.Context, id string) (*service.Workspace, error)
}

// JWT requires a valid portal token and attaches the claims and the session
// workspace to the request.
func JWT(auth tokenValidator, workspaces workspaceResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		ws, err := workspaces.Get(c.Request.Context(), claims.SessionID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextWorkspaceKey, ws)
		c.Set("session_id", claims.SessionID)
		c.Next()
	}
}

// Claims returns the claims set by JWT.
func Claims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

// Workspace returns the workspace set by JWT.
func Workspace(c *gin.Context) *service.Workspace {
	value, exists := c.Get(ContextWorkspaceKey)
	if !exists {
		return nil
	}
	ws, _ := value.(*service.Workspace)
	return ws
}
