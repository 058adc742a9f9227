package store

import (
	"context"
	"fmt"
	"log/slog"

	"printq/internal/config"
	"printq/internal/logging"
	"printq/internal/queue"
	"printq/internal/store/memory"
	"printq/internal/store/mongo"
	"printq/internal/store/postgres"
	"printq/internal/store/redis"
	"printq/internal/store/sqlite"
)

// Pinger is implemented by every backend; health checks use it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Open returns the backend configured in cfg.Store.Backend. Connection setup
// is bounded by the configured operation timeout.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (queue.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("open store: nil config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout())
	defer cancel()

	backend := cfg.Store.Backend
	var (
		store queue.Store
		err   error
	)
	switch backend {
	case config.BackendSQLite, "":
		store, err = sqlite.Open(cfg)
	case config.BackendMemory:
		store = memory.New()
	case config.BackendPostgres:
		store, err = postgres.Open(ctx, cfg.Store.PostgresDSN, postgres.WithLogger(logger))
	case config.BackendRedis:
		store, err = redis.Open(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB,
			cfg.Store.RedisKeyPrefix, redis.WithLogger(logger))
	case config.BackendMongo:
		store, err = mongo.Open(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, mongo.WithLogger(logger))
	default:
		return nil, fmt.Errorf("open store: unknown backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}
	logger.Debug("store opened", logging.String("backend", backend))
	return store, nil
}
