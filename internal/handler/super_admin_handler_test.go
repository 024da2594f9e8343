package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniportal-api/internal/middleware"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/internal/service"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
	"github.com/noah-isme/uniportal-api/pkg/listing"
)

type fakeTables struct {
	lastQuery service.ListQuery
	created   models.CreateUniversityRequest
	err       error
}

func (f *fakeTables) Universities(_ context.Context, _ *service.Workspace, q service.ListQuery) (*service.TableView[models.University], error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	page := listing.Page[models.University]{
		Items:      []models.University{{ID: "u-21", Name: "University 21"}},
		Page:       2,
		PageSize:   20,
		TotalPages: 3,
		Total:      45,
		From:       21,
		To:         40,
	}
	return &service.TableView[models.University]{Page: page, Summary: page.Summary("universities")}, nil
}

func (f *fakeTables) CreateUniversity(_ context.Context, _ *service.Workspace, req models.CreateUniversityRequest) (*models.University, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.University{ID: "new", Code: req.Code, Name: req.Name}, nil
}

func (f *fakeTables) Payments(_ context.Context, _ *service.Workspace, q service.ListQuery) (*service.PaymentsView, error) {
	f.lastQuery = q
	return &service.PaymentsView{TotalRevenue: 125000, Count: 2}, f.err
}

func (f *fakeTables) ActivityLogs(_ context.Context, _ *service.Workspace, q service.ListQuery) (*service.TableView[models.ActivityLog], error) {
	f.lastQuery = q
	return &service.TableView[models.ActivityLog]{}, f.err
}

func TestSuperAdminUniversitiesQuery(t *testing.T) {
	ws := newWorkspace(t)
	fake := &fakeTables{}
	h := NewSuperAdminHandler(fake)

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/super-admin/universities?search=port&page=2&refresh=true", nil)

	h.Universities(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.lastQuery.Search)
	assert.Equal(t, "port", *fake.lastQuery.Search)
	assert.Nil(t, fake.lastQuery.Category)
	assert.Equal(t, 2, fake.lastQuery.Page)
	assert.True(t, fake.lastQuery.Refresh)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Showing 21-40 of 45 universities", env.Pagination["summary"])
	assert.Equal(t, float64(45), env.Pagination["total_count"])
	assert.Equal(t, "Showing 21-40 of 45 universities", env.Meta["summary"])
	assert.Equal(t, middleware.SourceResident, env.Meta["source"])
}

func TestSuperAdminUniversitiesEmptySearchClearsFilter(t *testing.T) {
	ws := newWorkspace(t)
	fake := &fakeTables{}
	h := NewSuperAdminHandler(fake)

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/super-admin/universities?search=", nil)

	h.Universities(c)

	require.NotNil(t, fake.lastQuery.Search)
	assert.Equal(t, "", *fake.lastQuery.Search)
}

func TestSuperAdminUniversitiesInvalidPage(t *testing.T) {
	ws := newWorkspace(t)
	h := NewSuperAdminHandler(&fakeTables{})

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/super-admin/universities?page=zero", nil)

	h.Universities(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuperAdminUniversitiesUpstreamFailureIsRetryable(t *testing.T) {
	ws := newWorkspace(t)
	h := NewSuperAdminHandler(&fakeTables{err: appErrors.ErrUpstream})

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/super-admin/universities", nil)

	h.Universities(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["retryable"])
}

func TestSuperAdminCreateUniversity(t *testing.T) {
	ws := newWorkspace(t)
	fake := &fakeTables{}
	h := NewSuperAdminHandler(fake)

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Request = httptest.NewRequest(http.MethodPost, "/super-admin/universities", strings.NewReader(`{"code":"UNIPORT","name":"University of Port Harcourt","contact_person":"Registrar","email":"registrar@uniport.edu.ng"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreateUniversity(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "UNIPORT", fake.created.Code)
}

func TestSuperAdminPaymentsCarriesTotals(t *testing.T) {
	ws := newWorkspace(t)
	fake := &fakeTables{}
	h := NewSuperAdminHandler(fake)

	rec := httptest.NewRecorder()
	c := signedInContext(t, rec, ws, models.RoleSuperAdmin)
	c.Request = httptest.NewRequest(http.MethodGet, "/super-admin/payments?category=success", nil)

	h.Payments(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.lastQuery.Category)
	assert.Equal(t, "success", *fake.lastQuery.Category)
	assert.Contains(t, rec.Body.String(), `"totalRevenue":125000`)
}
