package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/uniportal-api/internal/appctx"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	"github.com/noah-isme/uniportal-api/pkg/config"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type fakeValidator struct {
	claims *models.JWTClaims
}

func (f fakeValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return f.claims, nil
}

func newManager(t *testing.T) (*service.WorkspaceManager, *service.Workspace) {
	t.Helper()
	m := service.NewWorkspaceManager(appctx.NewMemoryStore(), service.NewTableSpecs(config.ListingConfig{}), service.WorkspaceConfig{}, nil, zap.NewNop())
	ws, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, ws.Context().SignIn(context.Background(), "backend", models.Profile{ID: "u-1"}))
	return m, ws
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAttachesClaimsAndWorkspace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, ws := newManager(t)
	claims := &models.JWTClaims{SessionID: ws.ID, UserID: "u-1", Role: models.RoleStudent, App: models.AppStudents}

	r := gin.New()
	r.Use(JWT(fakeValidator{claims: claims}, m))
	r.GET("/me", func(c *gin.Context) {
		assert.Equal(t, claims, Claims(c))
		assert.Same(t, ws, Workspace(c))
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/me", "good").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "bad").Code)
}

func TestJWTRejectsSignedOutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, ws := newManager(t)
	claims := &models.JWTClaims{SessionID: ws.ID, Role: models.RoleStudent}
	require.NoError(t, ws.Context().Clear(context.Background()))
	m.Remove(ws.ID)

	r := gin.New()
	r.Use(JWT(fakeValidator{claims: claims}, m))
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "good").Code)
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	build := func(claims *models.JWTClaims) *gin.Engine {
		r := gin.New()
		r.Use(withClaims(claims), RequireRoles(models.RoleSuperAdmin))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	assert.Equal(t, http.StatusNoContent, serve(build(&models.JWTClaims{Role: models.RoleSuperAdmin}), http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(build(&models.JWTClaims{Role: models.RoleStudent}), http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(build(nil), http.MethodGet, "/x", "").Code)
}

func TestRequireAppMatchesSignedInApp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withClaims(&models.JWTClaims{Role: models.RoleDepartmentAdmin, App: models.AppDepartmentAdmin}))
	r.GET("/:app/students", RequireApp(models.AppUniversityAdmin, models.AppDepartmentAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/department-admin/students", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/university-admin/students", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/students/students", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/teachers/students", "").Code)
}

func TestRequireFeature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/on", RequireFeature("checkout", true), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/off", RequireFeature("checkout", false), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/on", "").Code)
	rec := serve(r, http.MethodGet, "/off", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Contains(t, rec.Body.String(), "FEATURE_DISABLED")
}

func TestAuditLogsSuccessfulRequestsOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(withClaims(&models.JWTClaims{UserID: "u-1", Role: models.RoleSuperAdmin, SessionID: "s-1"}))
	r.POST("/ok", Audit(zap.New(core), "university.create"), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/fail", Audit(zap.New(core), "university.create"), func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	serve(r, http.MethodPost, "/ok", "")
	serve(r, http.MethodPost, "/fail", "")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "university.create", fields["action"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
}

func TestResponseMetaReportsSourceAndTiming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/universities", func(c *gin.Context) {
		SetSource(c, false)
		SetMeta(c, "summary", "Showing 1-3 of 3 universities")
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/universities", "")

	require.NotNil(t, meta)
	assert.Equal(t, SourceResident, meta["source"])
	assert.Equal(t, "Showing 1-3 of 3 universities", meta["summary"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))

	SetSource(c, true)
	meta := ExtractMeta(c)
	assert.Equal(t, SourceUpstream, meta["source"])
	assert.NotContains(t, meta, "processing_time_ms")
}

func TestMetricsLabelsRequestsByApp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { metrics.Handler().ServeHTTP(c.Writer, c.Request) })
	r.GET("/super-admin/universities", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{App: models.AppSuperAdmin})
		c.Status(http.StatusOK)
	})
	r.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/super-admin/universities", "")
	serve(r, http.MethodGet, "/public", "")
	serve(r, http.MethodGet, "/metrics", "")

	body := serve(r, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, body, `http_requests_total{app="super-admin",method="GET",path="/super-admin/universities",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{app="anonymous",method="GET",path="/public",status="200"} 1`)
	assert.NotContains(t, body, `path="/metrics"`)
}
