package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/channel"
	"github.com/spec-kit/support-desk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Support   *handlers.SupportHandler
	Tickets   *handlers.TicketsHandler
	Customers *handlers.CustomersHandler
	Metrics   *handlers.MetricsHandler
	Collector *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Health)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Collector != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Collector.Handler()))
	}

	api := app.Group("/api")

	support := api.Group("/support")
	support.Post("/submit", cfg.Support.Submit(channel.WebForm{}))
	support.Post("/gmail/submit", cfg.Support.Submit(channel.Gmail{}))
	support.Post("/whatsapp/submit", cfg.Support.Submit(channel.WhatsApp{}))
	api.Post("/webhooks/whatsapp", cfg.Support.WhatsAppWebhook)

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/escalate", cfg.Tickets.Escalate)
	tickets.Post("/:id/resolve", cfg.Tickets.Resolve)

	customers := api.Group("/customers")
	customers.Get("/", cfg.Customers.ListCustomers)
	customers.Get("/:id", cfg.Customers.GetCustomer)

	api.Get("/metrics/overview", cfg.Metrics.Overview)
	api.Get("/conversations", cfg.Metrics.Conversations)
}
