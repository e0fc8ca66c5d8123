package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kodegym/kodegym/internal/config"
	"github.com/kodegym/kodegym/internal/handler"
	"github.com/kodegym/kodegym/internal/observability"
)

// CoreDependencies groups the core service's route dependencies.
type CoreDependencies struct {
	SubmissionHandler *handler.SubmissionHandler
	InternalHandler   *handler.InternalHandler
	JWTMiddleware     fiber.Handler
}

// RegisterCore wires the core service's HTTP routes.
func RegisterCore(app *fiber.App, cfg config.Config, deps CoreDependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.SubmissionHandler != nil {
		protected := api.Group("", jwtMiddleware)
		deps.SubmissionHandler.Register(protected)
	}

	// Service-to-service lookups; reachable only inside the deployment
	// network, so no JWT here.
	if deps.InternalHandler != nil {
		internal := app.Group("/internal")
		deps.InternalHandler.Register(internal)
	}

	app.Get("/metrics", observability.MetricsHandler())
}

// AIDependencies groups the AI service's route dependencies.
type AIDependencies struct {
	RecommendationHandler *handler.RecommendationHandler
}

// RegisterAI wires the AI service's HTTP routes.
func RegisterAI(app *fiber.App, cfg config.Config, deps AIDependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.RecommendationHandler != nil {
		deps.RecommendationHandler.Register(api)
	}

	app.Get("/metrics", observability.MetricsHandler())
}
