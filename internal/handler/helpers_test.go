package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniportal-api/internal/appctx"
	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	"github.com/noah-isme/uniportal-api/pkg/config"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newWorkspace(t *testing.T) *service.Workspace {
	t.Helper()
	m := service.NewWorkspaceManager(appctx.NewMemoryStore(), service.NewTableSpecs(config.ListingConfig{}), service.WorkspaceConfig{}, nil, nil)
	ws, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, ws.Context().SignIn(context.Background(), "backend-token", models.Profile{ID: "u-1", Name: "Ada"}))
	return ws
}

func signedInContext(t *testing.T, rec *httptest.ResponseRecorder, ws *service.Workspace, role models.UserRole) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{SessionID: ws.ID, UserID: "u-1", Role: role})
	c.Set(middleware.ContextWorkspaceKey, ws)
	return c
}
