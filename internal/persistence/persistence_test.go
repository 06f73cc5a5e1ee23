package persistence

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/user-registry/internal/config"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	raw, err := migrationsFS.ReadFile("migrations/00001_create_users.sql")
	require.NoError(t, err)
	sql := string(raw)
	assert.Contains(t, sql, "-- +goose Up")
	assert.Contains(t, sql, "-- +goose Down")
	assert.Contains(t, sql, "CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)")
}

func TestRunMigrations_NilPoolIsSkipped(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

func TestNewPostgres_WithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}

func TestNilHandles(t *testing.T) {
	var pg *Postgres
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))

	var rdb *Redis
	assert.Error(t, rdb.Ping(context.Background()))
	rdb.Close()
}

func TestNewRedis_RequiredUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRedis(ctx, config.RedisConfig{Addr: "127.0.0.1:1"}, true, zap.NewNop())
	assert.Error(t, err)

	rdb, err := NewRedis(ctx, config.RedisConfig{Addr: "127.0.0.1:1"}, false, zap.NewNop())
	require.NoError(t, err)
	defer rdb.Close()
	assert.Error(t, rdb.Ping(ctx))
}
