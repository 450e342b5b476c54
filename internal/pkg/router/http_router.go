package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/omniagency/omniagency/app/controllers"
)

// HttpRouter registers the unauthenticated surface: provider webhooks and
// the health probe. Webhook authenticity comes from signature verification,
// not from the auth middleware.
type HttpRouter struct {
	deps Deps
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	stripeWebhook := controllers.NewStripeWebhookController(
		h.deps.Config.StripeWebhookSecret,
		h.deps.Billing,
		h.deps.Repos.WebhookEvent,
	)
	clerkWebhook := controllers.NewClerkWebhookController(
		h.deps.Config.ClerkWebhookSecret,
		h.deps.Identity,
		h.deps.Repos.WebhookEvent,
	)

	webhooks := app.Group("/webhooks")
	webhooks.Post("/stripe", stripeWebhook.HandleWebhook)
	webhooks.Post("/clerk", clerkWebhook.HandleWebhook)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
