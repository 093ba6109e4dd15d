package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-grading-api/internal/config"
	"github.com/noah-isme/gema-grading-api/internal/handler"
	"github.com/noah-isme/gema-grading-api/internal/middleware"
	"github.com/noah-isme/gema-grading-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler      *handler.ActivityHandler
	AttemptHandler       *handler.AttemptHandler
	AdminActivityHandler *handler.AdminActivityHandler
	AdminReviewHandler   *handler.AdminReviewHandler
	AdminAuditHandler    *handler.AdminAuditHandler
	HealthChecks         map[string]handler.Pinger
	JWTMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	requireUser := middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.Next()
	}, middleware.AuthOptions{Role: middleware.AuthRoleAny})

	learner := app.Group("/api/v2", jwtMiddleware, requireUser)
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(learner.Group("/activities"))
	}
	if deps.AttemptHandler != nil {
		deps.AttemptHandler.Register(learner)
	}

	admin := app.Group("/api/admin", jwtMiddleware)
	if deps.AdminActivityHandler != nil {
		authors := admin.Group("/activities", middleware.RequireRole(middleware.AuthorRoles...))
		deps.AdminActivityHandler.Register(authors)
	}
	if deps.AdminReviewHandler != nil {
		reviewers := admin.Group("/attempts", middleware.RequireRole(middleware.AuthorRoles...))
		deps.AdminReviewHandler.Register(reviewers)
	}
	if deps.AdminAuditHandler != nil {
		audit := admin.Group("/audit", middleware.RequireRole(middleware.RoleAdmin))
		deps.AdminAuditHandler.Register(audit)
	}
}
