package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/coursetrack-api/internal/config"
	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/handler"
	"github.com/noah-isme/coursetrack-api/internal/middleware"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/observability"
)

// Dependencies groups router dependencies for registration. Nil handlers are skipped.
type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	ActivityLogHandler    *handler.ActivityLogHandler
	CourseOfferingHandler *handler.CourseOfferingHandler
	ModuleHandler         *handler.CatalogHandler[models.Module, dto.ModuleRequest]
	CohortHandler         *handler.CatalogHandler[models.Cohort, dto.CohortRequest]
	ClassHandler          *handler.CatalogHandler[models.Class, dto.ClassRequest]
	ModeHandler           *handler.CatalogHandler[models.Mode, dto.ModeRequest]
	StudentHandler        *handler.StudentHandler
	InboxHandler          *handler.InboxHandler
	OpsHandler            *handler.OpsHandler
	AuditHandler          *handler.AuditHandler
	SeedHandler           *handler.SeedHandler
	HealthProbes          map[string]handler.HealthProbe
	QueueDepth            observability.QueueDepthFunc
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	var collectors []prometheus.Collector
	if deps.QueueDepth != nil {
		collectors = append(collectors, observability.NewQueueDepthCollector(deps.QueueDepth))
	}
	app.Get("/metrics", observability.MetricsHandler(collectors...))

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	managerOnly := middleware.RequireRole(models.RoleManager)
	staff := middleware.RequireRole(models.RoleManager, models.RoleFacilitator)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), jwtMiddleware)
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	protected := func(prefix string, handlers ...fiber.Handler) fiber.Router {
		return api.Group(prefix, append([]fiber.Handler{jwtMiddleware}, handlers...)...)
	}

	if deps.ActivityLogHandler != nil {
		deps.ActivityLogHandler.Register(protected("/activity-logs", staff))
	}
	if deps.CourseOfferingHandler != nil {
		deps.CourseOfferingHandler.Register(protected("/course-offerings", staff))
	}

	// Catalog
	if deps.ModuleHandler != nil {
		deps.ModuleHandler.Register(protected("/modules", staff))
	}
	if deps.CohortHandler != nil {
		deps.CohortHandler.Register(protected("/cohorts", staff))
	}
	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(protected("/classes", staff))
	}
	if deps.ModeHandler != nil {
		deps.ModeHandler.Register(protected("/modes", staff))
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(protected("/students", managerOnly))
	}
	if deps.InboxHandler != nil {
		deps.InboxHandler.Register(protected("/notifications"))
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(protected("/audit", managerOnly))
	}
	if deps.OpsHandler != nil {
		deps.OpsHandler.Register(protected("/ops", managerOnly))
	}
}
