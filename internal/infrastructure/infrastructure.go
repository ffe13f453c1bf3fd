// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, redis, AWS)
// that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/addrsplit/internal/config"
	"github.com/JaimeStill/addrsplit/pkg/database"
	"github.com/JaimeStill/addrsplit/pkg/lifecycle"
	"github.com/JaimeStill/addrsplit/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil unless the postgres store driver is selected, Storage is
// nil unless blob storage is configured, and Redis is nil without a URL.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Redis     *redis.Client
	AWS       aws.Config
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
	}

	if cfg.Store.Driver == config.DriverPostgres {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	if cfg.Storage.Configured() {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	if cfg.Redis.Enabled() {
		client, err := NewRedis(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis init failed: %w", err)
		}
		infra.Redis = client
	}

	awsCfg, err := LoadAWS(context.Background(), &cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("aws init failed: %w", err)
	}
	infra.AWS = awsCfg

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	if i.Redis != nil {
		startRedis(i.Redis, i.Lifecycle, i.Logger.With("system", "redis"))
	}
	return nil
}
