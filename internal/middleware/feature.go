package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/response"
)

// RequireFeature rejects requests with FEATURE_DISABLED while the named
// feature is switched off.
func RequireFeature(name string, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, name+" is not enabled"))
			c.Abort()
			return
		}
		c.Next()
	}
}
