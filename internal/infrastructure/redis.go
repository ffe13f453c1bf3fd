package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/addrsplit/internal/config"
	"github.com/JaimeStill/addrsplit/pkg/lifecycle"
)

const redisPingTimeout = 5 * time.Second

// NewRedis creates a client from a redis:// or rediss:// URL. No connection
// is made until first use.
func NewRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func startRedis(client *redis.Client, lc *lifecycle.Coordinator, logger *slog.Logger) {
	logger.Info("starting redis client")

	lc.OnStartup("redis", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis ping failed", "error", err)
			return err
		}
		logger.Info("redis connection established")
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := client.Close(); err != nil {
			logger.Error("redis close failed", "error", err)
			return
		}
		logger.Info("redis connection closed")
	})
}
