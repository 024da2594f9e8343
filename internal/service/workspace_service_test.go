package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/appctx"
	"github.com/noah-isme/uniportal-api/internal/models"
	"github.com/noah-isme/uniportal-api/pkg/config"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

func TestWorkspaceRehydratesFromStore(t *testing.T) {
	store := appctx.NewMemoryStore()
	specs := NewTableSpecs(config.ListingConfig{})
	first := NewWorkspaceManager(store, specs, WorkspaceConfig{TTL: time.Hour}, nil, zap.NewNop())

	ws, err := first.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, ws.Context().SignIn(context.Background(), "tok", models.Profile{ID: "u-1"}))
	require.NoError(t, ws.Context().SetSidebarCollapsed(context.Background(), true))

	second := NewWorkspaceManager(store, specs, WorkspaceConfig{TTL: time.Hour}, nil, zap.NewNop())
	restored, err := second.Get(context.Background(), ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", restored.Context().Token())
	assert.True(t, restored.Context().SidebarCollapsed())
	assert.Equal(t, 1, second.Len())
}

func TestWorkspaceGetUnknownSession(t *testing.T) {
	m := newTestWorkspaces()
	_, err := m.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = m.Get(context.Background(), "")
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestSweepEvictsIdleWorkspaces(t *testing.T) {
	m := newTestWorkspaces()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	idle, err := m.Create(context.Background())
	require.NoError(t, err)
	now = now.Add(50 * time.Minute)
	active, err := m.Create(context.Background())
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	_, err = m.Get(context.Background(), active.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
	assert.Error(t, idle.ctx.Err())
	assert.NoError(t, active.ctx.Err())
}
