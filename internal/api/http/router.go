package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/user-registry/internal/api/http/handlers"
	"github.com/spec-kit/user-registry/internal/auth"
	"github.com/spec-kit/user-registry/internal/observability"
)

// ProcedurePrefix is the path procedures are served under.
const ProcedurePrefix = "/trpc"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Procedures     *handlers.ProcedureHandler
	AuthMiddleware *auth.BearerMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if reg := cfg.Metrics.Registry(); reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	procedures := app.Group(ProcedurePrefix)
	if cfg.AuthMiddleware != nil {
		procedures.Use(cfg.AuthMiddleware.Handle)
	}
	procedures.Post("/:procedure", cfg.Procedures.Call)
}
