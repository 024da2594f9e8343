package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniportal-api/internal/service"
)

const anonymousApp = "anonymous"

// Metrics records request counts and latency by route template and by the
// portal app of the signed-in user. Scrapes of the metrics endpoint itself
// are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if _, ok := skipped[path]; ok {
			return
		}
		if path == "" {
			path = "unmatched"
		}
		app := anonymousApp
		if claims := Claims(c); claims != nil && claims.App != "" {
			app = string(claims.App)
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, app, c.Writer.Status(), time.Since(start))
	}
}
