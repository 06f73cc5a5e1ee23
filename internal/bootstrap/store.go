// Package bootstrap opens the user store selected by configuration. Binaries
// share it so that the server and the seeder always agree on the backend.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/user-registry/internal/api/http/handlers"
	"github.com/spec-kit/user-registry/internal/config"
	"github.com/spec-kit/user-registry/internal/persistence"
	"github.com/spec-kit/user-registry/internal/repository"
)

// Store is the single store handle of a process.
type Store struct {
	Users    repository.UserRepository
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
}

// OpenStore connects the backend named by cfg.Store.Driver and runs
// migrations for Postgres when enabled.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if pg.PoolHandle() == nil {
			return nil, fmt.Errorf("POSTGRES_DSN is required for the %s store", config.StoreDriverPostgres)
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return &Store{Users: repository.NewUserRepository(pg.PoolHandle()), Postgres: pg}, nil

	case config.StoreDriverRedis:
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, true, logger)
		if err != nil {
			return nil, err
		}
		return &Store{Users: repository.NewRedisUserRepository(rdb.Client, ""), Redis: rdb}, nil

	case config.StoreDriverMemory:
		logger.Warn("using in-memory user store; data is lost on exit")
		return &Store{Users: repository.NewInMemoryUserRepository()}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

// Dependencies lists the connections readiness should probe.
func (s *Store) Dependencies() map[string]handlers.Pinger {
	deps := map[string]handlers.Pinger{}
	if s.Postgres != nil {
		deps["postgres"] = s.Postgres
	}
	if s.Redis != nil {
		deps["redis"] = s.Redis
	}
	return deps
}

// Close releases every connection the store opened.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.Postgres.Close()
	s.Redis.Close()
}
