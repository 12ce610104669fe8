package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/taskdist/distribution-service/internal/api/http/handlers"
	"github.com/taskdist/distribution-service/internal/auth"
	"github.com/taskdist/distribution-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Agents         *handlers.AgentsHandler
	Tasks          *handlers.TasksHandler
	AgentTasks     *handlers.AgentTasksHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics is served at /metrics when set.
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Task routes attach role checks per route
// because admin and agent endpoints share the /tasks prefix.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/admin-login", cfg.Auth.AdminLogin)
	authGroup.Post("/agent-login", cfg.Auth.AgentLogin)
	authGroup.Get("/session", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Auth.Session)

	admin := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAdmin(), h}
	}
	agent := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAgent(), h}
	}

	agents := app.Group("/agents", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	agents.Get("/", cfg.Agents.List)
	agents.Post("/", cfg.Agents.Create)
	agents.Get("/:id", cfg.Agents.Get)
	agents.Put("/:id", cfg.Agents.Update)
	agents.Delete("/:id", cfg.Agents.Delete)

	app.Post("/tasks/upload", admin(cfg.Tasks.Upload)...)
	app.Get("/tasks", admin(cfg.Tasks.List)...)
	app.Delete("/tasks/uploads/:uploadId", admin(cfg.Tasks.DeleteUpload)...)
	app.Post("/tasks/:id/complete", agent(cfg.AgentTasks.Complete)...)
	app.Delete("/tasks/:id/complete", agent(cfg.AgentTasks.Reopen)...)
	app.Delete("/tasks/:id", admin(cfg.Tasks.Delete)...)

	app.Get("/analytics/tasks", admin(cfg.Analytics.Tasks)...)

	app.Get("/agent/tasks", agent(cfg.AgentTasks.List)...)
}
