package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spec-kit/user-registry/internal/cli"
	"github.com/spec-kit/user-registry/internal/client"
	"github.com/spec-kit/user-registry/internal/session"
)

func main() {
	addr := flag.String("addr", envOr("USER_REGISTRY_URL", "http://localhost:8080"), "user registry base URL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New()
	defer sess.Close()

	app := cli.NewApp(client.NewFlow(client.New(*addr), sess), os.Stdin, int(os.Stdin.Fd()), os.Stdout)
	if err := app.Run(ctx); err != nil {
		log.Fatalf("authcli: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
