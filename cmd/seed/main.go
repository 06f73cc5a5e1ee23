package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/user-registry/internal/bootstrap"
	"github.com/spec-kit/user-registry/internal/config"
	"github.com/spec-kit/user-registry/internal/observability"
	"github.com/spec-kit/user-registry/internal/seed"
	"github.com/spec-kit/user-registry/internal/service"
)

func main() {
	reset := flag.Bool("reset", false, "delete every user before seeding")
	password := flag.String("password", "password123", "password given to every seeded user")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open user store", zap.Error(err))
	}
	defer store.Close()

	svc := service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: store.Users, Logger: logger})
	res, err := seed.Run(ctx, svc, store.Users, seed.Options{Password: *password, Reset: *reset}, logger)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	for _, u := range res.Created {
		logger.Info("seeded user", zap.String("id", u.ID), zap.String("email", u.Email))
	}
}
