package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/ccalu/channelpulse/internal/handler"
	"github.com/ccalu/channelpulse/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health       *handler.HealthHandler
	Channel      *handler.ChannelHandler
	Run          *handler.RunHandler
	Notification *handler.NotificationHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	apiLimiter := middleware.NewAPIRateLimiter()
	collectLimiter := middleware.NewCollectRateLimiter()

	api := app.Group("/api", apiLimiter.Handler())

	// Collection
	api.Post("/collect", h.Run.Trigger, collectLimiter.Handler())
	api.Get("/runs", h.Run.List)
	api.Get("/quota", h.Run.Quota)

	// Channels. Static paths registered before the :id route.
	api.Get("/channels", h.Channel.Table)
	api.Get("/channels/problems", h.Channel.Problems)
	api.Get("/channels/stale", h.Channel.Stale)
	api.Get("/channels/:id", h.Channel.Get)
	api.Get("/channels/:id/history", h.Channel.History)

	// Notifications
	api.Get("/notifications", h.Notification.Feed)
	api.Get("/notifications/stats", h.Notification.Stats)
	api.Post("/notifications/mark-all-seen", h.Notification.MarkAllSeen)
	api.Post("/notifications/:id/seen", h.Notification.MarkSeen)
	api.Get("/notifications/rules", h.Notification.ListRules)
	api.Post("/notifications/rules", h.Notification.CreateRule)
	api.Put("/notifications/rules/:id", h.Notification.UpdateRule)
	api.Delete("/notifications/rules/:id", h.Notification.DeleteRule)
}
