package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

// CacheRepository keeps JSON snapshots of upstream resources in Redis.
// Every key belongs to a group; the members of a group are tracked in a set
// so a whole group can be dropped without scanning the keyspace.
type CacheRepository struct {
	client    *redis.Client
	namespace string
	logger    *zap.Logger
}

// NewCacheRepository constructs a cache repository rooted at namespace.
func NewCacheRepository(client *redis.Client, namespace string, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, namespace: namespace, logger: logger}
}

func (r *CacheRepository) entryKey(group, name string) string {
	return fmt.Sprintf("%s:cache:%s:%s", r.namespace, group, name)
}

func (r *CacheRepository) groupKey(group string) string {
	return fmt.Sprintf("%s:cache-group:%s", r.namespace, group)
}

// Get decodes the snapshot stored under group/name into dest.
func (r *CacheRepository) Get(ctx context.Context, group, name string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, r.entryKey(group, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return appErrors.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("read %s/%s: %w", group, name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s/%s: %w", group, name, err)
	}
	return nil
}

// Put stores value under group/name and records it as a group member.
func (r *CacheRepository) Put(ctx context.Context, group, name string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", group, name, err)
	}
	key := r.entryKey(group, name)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, ttl)
		pipe.SAdd(ctx, r.groupKey(group), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", group, name, err)
	}
	return nil
}

// DropGroup deletes every snapshot recorded under group.
func (r *CacheRepository) DropGroup(ctx context.Context, group string) error {
	if r.client == nil {
		return nil
	}
	setKey := r.groupKey(group)
	members, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("list group %s: %w", group, err)
	}
	keys := append(members, setKey)
	dropped, err := r.client.Unlink(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("drop group %s: %w", group, err)
	}
	r.logger.Debug("cache group dropped", zap.String("group", group), zap.Int64("keys", dropped))
	return nil
}

// Ping checks the Redis connection for readiness probes.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}
