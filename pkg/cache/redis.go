// Package cache connects to the Redis instance shared by the snapshot cache
// and the session store.
package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/uniportal-api/pkg/config"
)

// CommandObserver receives the duration of every Redis command.
type CommandObserver interface {
	ObserveDBQuery(label string, d time.Duration)
}

// Options turns cfg into client options.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	return opts, nil
}

// NewRedis connects and pings. Command timings go to observer when it is non-nil.
func NewRedis(ctx context.Context, cfg config.RedisConfig, observer CommandObserver) (*redis.Client, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if observer != nil {
		client.AddHook(timingHook{observer: observer})
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

type timingHook struct {
	observer CommandObserver
}

func (h timingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h timingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observer.ObserveDBQuery("redis."+cmd.Name(), time.Since(start))
		return err
	}
}

func (h timingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observer.ObserveDBQuery("redis.pipeline", time.Since(start))
		return err
	}
}
