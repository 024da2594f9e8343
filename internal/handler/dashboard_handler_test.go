package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniportal-api/internal/dashboard"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type fakeDashboardSrv struct {
	refresh bool
	kind    models.SeriesKind
	days    int
	err     error
}

func (f *fakeDashboardSrv) Mount(_ context.Context, _ *service.Workspace, refresh bool) dashboard.Snapshot {
	f.refresh = refresh
	return dashboard.Snapshot{
		Mounted: true,
		Summary: dashboard.SummaryState{Data: &models.DashboardSummary{TotalUniversities: 12}},
		Users:   dashboard.Series{Kind: models.SeriesUserGrowth, RangeDays: 30, Empty: true, Message: models.SeriesUserGrowth.EmptyMessage()},
	}
}

func (f *fakeDashboardSrv) SetRange(_ context.Context, _ *service.Workspace, kind models.SeriesKind, days int) (dashboard.Series, error) {
	f.kind = kind
	f.days = days
	if f.err != nil {
		return dashboard.Series{}, f.err
	}
	return dashboard.Series{Kind: kind, RangeDays: days}, nil
}

func TestDashboardHandlerGet(t *testing.T) {
	ws := newWorkspace(t)
	fake := &fakeDashboardSrv{}
	h := NewDashboardHandler(fake)

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/super-admin/dashboard?refresh=true", nil)

	h.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fake.refresh)
	env := decodeEnvelope(t, rec)
	var snapshot dashboard.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Equal(t, int64(12), snapshot.Summary.Data.TotalUniversities)
	assert.Equal(t, "No user growth data available", snapshot.Users.Message)
	assert.Contains(t, env.Meta, "mount_ms")
}

func TestDashboardHandlerSetRange(t *testing.T) {
	ws := newWorkspace(t)
	fake := &fakeDashboardSrv{}
	h := NewDashboardHandler(fake)

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Params = gin.Params{{Key: "kind", Value: "transaction-growth"}}
	c.Request = httptest.NewRequest(http.MethodPut, "/super-admin/dashboard/series/transaction-growth", strings.NewReader(`{"days":7}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.SetRange(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SeriesTransactionGrowth, fake.kind)
	assert.Equal(t, 7, fake.days)
}

func TestDashboardHandlerSetRangeRejectsInvalidRange(t *testing.T) {
	ws := newWorkspace(t)
	h := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.Clone(appErrors.ErrValidation, dashboard.ErrInvalidRange.Error())})

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Params = gin.Params{{Key: "kind", Value: "user-growth"}}
	c.Request = httptest.NewRequest(http.MethodPut, "/super-admin/dashboard/series/user-growth", strings.NewReader(`{"days":45}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.SetRange(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerSetRangeRequiresDays(t *testing.T) {
	ws := newWorkspace(t)
	h := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Request = httptest.NewRequest(http.MethodPut, "/super-admin/dashboard/series/user-growth", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.SetRange(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
