// Package cors lets the portal front-ends call the API from the browser.
package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	exposeHeaders = "X-Request-ID, Content-Disposition"
)

// Policy decides which origins may make credentialed requests. Entries are
// exact origins such as "https://admin.uni.edu" or subdomain wildcards such
// as "https://*.uni.edu", which cover every portal hosted under that domain.
type Policy struct {
	any       bool
	exact     map[string]struct{}
	wildcards []wildcard
}

type wildcard struct {
	scheme string
	suffix string
}

// NewPolicy parses the configured origins. An empty list allows every origin.
func NewPolicy(origins []string) Policy {
	p := Policy{exact: make(map[string]struct{}, len(origins))}
	for _, raw := range origins {
		origin := strings.TrimRight(strings.TrimSpace(raw), "/")
		switch {
		case origin == "":
			continue
		case origin == "*":
			p.any = true
		case strings.Contains(origin, "://*."):
			parts := strings.SplitN(origin, "://*.", 2)
			p.wildcards = append(p.wildcards, wildcard{scheme: parts[0] + "://", suffix: "." + parts[1]})
		default:
			p.exact[origin] = struct{}{}
		}
	}
	if len(p.exact) == 0 && len(p.wildcards) == 0 {
		p.any = true
	}
	return p
}

// Allows reports whether origin may call the API.
func (p Policy) Allows(origin string) bool {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return false
	}
	if p.any {
		return true
	}
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, w := range p.wildcards {
		if strings.HasPrefix(origin, w.scheme) && strings.HasSuffix(origin, w.suffix) && len(origin) > len(w.scheme)+len(w.suffix) {
			return true
		}
	}
	return false
}

// New returns the CORS middleware for origins. Allowed origins are echoed
// back so credentialed requests work; preflights end here with 204.
func New(origins []string) gin.HandlerFunc {
	policy := NewPolicy(origins)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if policy.Allows(origin) {
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Set("Access-Control-Expose-Headers", exposeHeaders)
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			if origin != "" && !policy.Allows(origin) {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			header.Set("Access-Control-Allow-Headers", allowHeaders)
			header.Set("Access-Control-Allow-Methods", allowMethods)
			header.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
