package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/uniportal-api/internal/appctx"
	"github.com/noah-isme/uniportal-api/internal/models"
)

// SessionRepository persists application context state in Redis so sessions
// survive restarts and are shared between replicas.
type SessionRepository struct {
	client *redis.Client
	prefix string
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(client *redis.Client, prefix string) *SessionRepository {
	if prefix == "" {
		prefix = "session"
	}
	return &SessionRepository{client: client, prefix: prefix}
}

func (r *SessionRepository) key(sessionID string) string {
	return r.prefix + ":" + sessionID
}

// Load implements appctx.Store.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*models.SessionState, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appctx.ErrNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var state models.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

// Save implements appctx.Store.
func (r *SessionRepository) Save(ctx context.Context, sessionID string, state models.SessionState, ttl time.Duration) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := r.client.Set(ctx, r.key(sessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

// Delete implements appctx.Store.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

var _ appctx.Store = (*SessionRepository)(nil)
