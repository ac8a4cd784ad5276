package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-registry/pkg/cache"
	"github.com/noah-isme/classroom-registry/pkg/config"
	"github.com/noah-isme/classroom-registry/pkg/database"
)

// Open builds the backend selected by cfg.Store.Backend. The returned closer
// releases any connection the backend holds.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Backend, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case config.StoreBackendFile, "":
		local, err := NewLocalStorage(cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		backend := NewFileBackend(local, cfg.Store.File)
		logger.Info("using file snapshot backend", zap.String("path", backend.Path()))
		return backend, noop, nil
	case config.StoreBackendRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		backend := NewRedisBackend(client, cfg.Store.Key)
		logger.Info("using redis snapshot backend", zap.String("addr", client.Options().Addr), zap.String("key", cfg.Store.Key))
		return backend, backend.Close, nil
	case config.StoreBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		backend := NewPostgresBackend(db, cfg.Store.Key)
		if err := backend.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("using postgres snapshot backend", zap.String("database", cfg.Database.Name), zap.String("key", cfg.Store.Key))
		return backend, db.Close, nil
	case config.StoreBackendMemory:
		logger.Warn("using in-memory snapshot backend; state will not survive restarts")
		return NewMemoryBackend(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
