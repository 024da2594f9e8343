package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/cart"
	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type fakeCatalogGateway struct {
	courses []models.Course
	err     error
	calls   int
}

func (f *fakeCatalogGateway) Courses(context.Context) ([]models.Course, error) {
	f.calls++
	return f.courses, f.err
}

func testCourses() []models.Course {
	return []models.Course{
		{Code: "CSC101.1", Title: "Introduction to Computer Science", Unit: 3},
		{Code: "CSC201.1", Title: "Data Structures", Unit: 3},
		{Code: "MTH120.1", Title: "Calculus I", Unit: 4},
	}
}

func TestCartServiceRegistrationScenario(t *testing.T) {
	gw := &fakeCatalogGateway{courses: testCourses()}
	svc := NewCartService(gw, nil, CartConfig{}, zap.NewNop())
	ws := signedInWorkspace(t)
	ctx := context.Background()

	_, err := svc.OpenPicker(ctx, ws)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, ws, "MTH120.1")
	require.NoError(t, err)

	view, err := svc.Search(ctx, ws, "csc")
	require.NoError(t, err)
	require.Len(t, view.Visible, 2)
	assert.Equal(t, []string{"MTH120.1"}, view.Selected)

	_, err = svc.Toggle(ctx, ws, "CSC101.1")
	require.NoError(t, err)
	view, err = svc.Commit(ctx, ws)
	require.NoError(t, err)

	assert.Equal(t, cart.PhaseIdle, view.Phase)
	require.Len(t, view.Previewed, 2)
	assert.Equal(t, "CSC101.1", view.Previewed[0].Code)
	assert.Equal(t, cart.Summary{TotalUnits: 7, TotalAmount: 7000}, view.Summary)
	assert.Equal(t, 1, gw.calls)
}

func TestCartServiceGuardsMapToAPIErrors(t *testing.T) {
	svc := NewCartService(&fakeCatalogGateway{courses: testCourses()}, nil, CartConfig{}, zap.NewNop())
	ws := signedInWorkspace(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, ws, "CSC101.1")
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.OpenPicker(ctx, ws)
	require.NoError(t, err)
	_, err = svc.Commit(ctx, ws)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Toggle(ctx, ws, "BIO999")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.BeginConfirmation(ctx, ws)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CancelConfirmation(ctx, ws)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Remove(ctx, ws, "CSC101.1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCartServiceConfirmationRoundTrip(t *testing.T) {
	svc := NewCartService(&fakeCatalogGateway{courses: testCourses()}, nil, CartConfig{UnitRate: 500}, zap.NewNop())
	ws := signedInWorkspace(t)
	ctx := context.Background()

	_, err := svc.OpenPicker(ctx, ws)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, ws, "CSC201.1")
	require.NoError(t, err)
	_, err = svc.Commit(ctx, ws)
	require.NoError(t, err)

	view, err := svc.BeginConfirmation(ctx, ws)
	require.NoError(t, err)
	assert.Equal(t, cart.StepConfirmation, view.Step)
	assert.Equal(t, int64(1500), view.Summary.TotalAmount)

	view, err = svc.CancelConfirmation(ctx, ws)
	require.NoError(t, err)
	assert.Equal(t, cart.StepRegistration, view.Step)
	assert.Len(t, view.Previewed, 1)
}

func TestCartServiceCatalogFailureIsRetryable(t *testing.T) {
	gw := &fakeCatalogGateway{err: appErrors.Clone(appErrors.ErrUpstreamTimeout, "")}
	svc := NewCartService(gw, nil, CartConfig{}, zap.NewNop())
	ws := signedInWorkspace(t)

	_, err := svc.View(context.Background(), ws)
	require.Error(t, err)
	assert.True(t, appErrors.Retryable(err))
	assert.Nil(t, ws.Cart())

	gw.err = nil
	gw.courses = testCourses()
	view, err := svc.View(context.Background(), ws)
	require.NoError(t, err)
	assert.Equal(t, cart.StepRegistration, view.Step)
}

func TestCartServiceInvalidBackendCatalog(t *testing.T) {
	gw := &fakeCatalogGateway{courses: []models.Course{{Code: "CSC101.1", Unit: 0}}}
	svc := NewCartService(gw, nil, CartConfig{}, zap.NewNop())

	_, err := svc.View(context.Background(), signedInWorkspace(t))
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestCartServiceStaticCatalog(t *testing.T) {
	gw := &fakeCatalogGateway{}
	svc := NewCartService(gw, nil, CartConfig{CatalogSource: CatalogSourceStatic}, zap.NewNop())

	c, err := svc.Session(context.Background(), signedInWorkspace(t))
	require.NoError(t, err)
	assert.Greater(t, c.Catalog().Len(), 0)
	assert.Zero(t, gw.calls)
}
