package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kongdonovan/anarchy-and-associates/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Integrity *handlers.IntegrityHandler
	Metrics   *handlers.MetricsHandler
}

// RegisterRoutes wires the operational HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	ops := app.Group("/ops")
	ops.Post("/integrity/scan", cfg.Integrity.Scan)
}
