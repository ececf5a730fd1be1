package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/GS-Pro2025/movewise/internal/config"
)

const pingTimeout = 3 * time.Second

// Module wires the Redis-backed session store.
var Module = fx.Options(
	fx.Provide(newSessionStore),
	fx.Invoke(registerLifecycle),
)

func newSessionStore(cfg *config.Config) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewStore(rdb, cfg.SessionTTL)
}

func registerLifecycle(lc fx.Lifecycle, store *Store) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("redis ping: %w", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
}
