package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-batch-grader/internal/config"
	"github.com/noah-isme/gema-batch-grader/internal/handler"
	"github.com/noah-isme/gema-batch-grader/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	BatchHandler *handler.BatchHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.BatchHandler != nil {
		batches := api.Group("/batches")
		deps.BatchHandler.Register(batches)
	}
}
