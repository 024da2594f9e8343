package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/api/v1/super-admin/universities", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func request(r *gin.Engine, method, origin string, preflight bool) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/api/v1/super-admin/universities", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsListedPortalOrigin(t *testing.T) {
	r := newRouter([]string{"https://admin.uniportal.test/"})

	rec := request(r, http.MethodGet, "https://admin.uniportal.test", false)

	assert.Equal(t, "https://admin.uniportal.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	r := newRouter([]string{"https://admin.uniportal.test"})

	rec := request(r, http.MethodGet, "https://evil.test", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSWildcardCoversEveryPortal(t *testing.T) {
	policy := NewPolicy([]string{"https://*.uniportal.test"})

	assert.True(t, policy.Allows("https://students.uniportal.test"))
	assert.True(t, policy.Allows("https://super-admin.uniportal.test/"))
	assert.False(t, policy.Allows("https://uniportal.test"))
	assert.False(t, policy.Allows("http://students.uniportal.test"))
	assert.False(t, policy.Allows("https://students.uniportal.test.evil"))
	assert.False(t, policy.Allows(""))
}

func TestCORSEmptyListAllowsAll(t *testing.T) {
	assert.True(t, NewPolicy(nil).Allows("https://anything.test"))
	assert.True(t, NewPolicy([]string{" ", "*"}).Allows("https://anything.test"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	r := newRouter(nil)

	rec := request(r, http.MethodOptions, "https://students.uniportal.test", true)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSPreflightFromUnknownOriginIsForbidden(t *testing.T) {
	r := newRouter([]string{"https://*.uniportal.test"})

	rec := request(r, http.MethodOptions, "https://evil.test", true)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
