// Package appctx is the typed application context of a signed-in session:
// the upstream bearer token, the user profile and UI preferences. Values are
// written through to a Store and observers are notified on every change.
package appctx

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/uniportal-api/internal/models"
)

// ErrNotFound is returned by a Store when no state exists for a session.
var ErrNotFound = errors.New("session state not found")

// Store persists session state by session ID.
type Store interface {
	Load(ctx context.Context, sessionID string) (*models.SessionState, error)
	Save(ctx context.Context, sessionID string, state models.SessionState, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// Key names a context value in change events.
type Key string

const (
	KeyToken            Key = "token"
	KeyProfile          Key = "profile"
	KeySidebarCollapsed Key = "sidebar_collapsed"
	KeyCleared          Key = "cleared"
)

// Change describes one mutation.
type Change struct {
	SessionID string
	Key       Key
	State     models.SessionState
}

// Context is the application context of one session.
type Context struct {
	mu        sync.RWMutex
	sessionID string
	store     Store
	ttl       time.Duration
	state     models.SessionState
	nextID    int
	observers map[int]func(Change)
	now       func() time.Time
}

// Open loads the session state from store, starting empty when none exists.
func Open(ctx context.Context, store Store, sessionID string, ttl time.Duration) (*Context, error) {
	c := &Context{
		sessionID: sessionID,
		store:     store,
		ttl:       ttl,
		observers: map[int]func(Change){},
		now:       time.Now,
	}
	if store == nil {
		return c, nil
	}
	state, err := store.Load(ctx, sessionID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, err
	case state != nil:
		c.state = *state
	}
	return c, nil
}

// SessionID returns the session the context belongs to.
func (c *Context) SessionID() string {
	return c.sessionID
}

// Token returns the upstream bearer token.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Token
}

// Profile returns a copy of the signed-in profile, or nil.
func (c *Context) Profile() *models.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Profile == nil {
		return nil
	}
	p := *c.state.Profile
	return &p
}

// SidebarCollapsed returns the persisted sidebar flag.
func (c *Context) SidebarCollapsed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Preferences.SidebarCollapsed
}

// State returns a copy of the whole state.
func (c *Context) State() models.SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetToken stores the upstream bearer token.
func (c *Context) SetToken(ctx context.Context, token string) error {
	return c.update(ctx, KeyToken, func(s *models.SessionState) { s.Token = token })
}

// SetProfile stores the signed-in profile.
func (c *Context) SetProfile(ctx context.Context, profile models.Profile) error {
	return c.update(ctx, KeyProfile, func(s *models.SessionState) { s.Profile = &profile })
}

// SetSidebarCollapsed stores the sidebar flag.
func (c *Context) SetSidebarCollapsed(ctx context.Context, collapsed bool) error {
	return c.update(ctx, KeySidebarCollapsed, func(s *models.SessionState) { s.Preferences.SidebarCollapsed = collapsed })
}

// SignIn stores token and profile in one write.
func (c *Context) SignIn(ctx context.Context, token string, profile models.Profile) error {
	if err := c.update(ctx, KeyToken, func(s *models.SessionState) {
		s.Token = token
		s.Profile = &profile
	}); err != nil {
		return err
	}
	c.notify(Change{SessionID: c.sessionID, Key: KeyProfile, State: c.State()})
	return nil
}

// Clear removes the persisted state. Observers receive a KeyCleared change.
func (c *Context) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.state = models.SessionState{}
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Delete(ctx, c.sessionID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	c.notify(Change{SessionID: c.sessionID, Key: KeyCleared})
	return nil
}

// Subscribe registers fn for change events and returns its cancel function.
func (c *Context) Subscribe(fn func(Change)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Context) update(ctx context.Context, key Key, mutate func(*models.SessionState)) error {
	c.mu.Lock()
	next := c.state
	mutate(&next)
	next.UpdatedAt = c.now().UTC()
	if c.store != nil {
		if err := c.store.Save(ctx, c.sessionID, next, c.ttl); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.state = next
	c.mu.Unlock()
	c.notify(Change{SessionID: c.sessionID, Key: key, State: next})
	return nil
}

func (c *Context) notify(change Change) {
	c.mu.RLock()
	fns := make([]func(Change), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()
	for _, fn := range fns {
		fn(change)
	}
}
