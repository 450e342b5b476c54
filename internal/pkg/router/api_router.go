package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/omniagency/omniagency/app/controllers"
	"github.com/omniagency/omniagency/internal/pkg/middleware"
)

// ApiRouter registers the authenticated dashboard API under /api/v1.
type ApiRouter struct {
	deps Deps
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	account := controllers.NewAccountController(h.deps.Repos.User)
	agents := controllers.NewAgentController(h.deps.Repos.Agent)
	settings := controllers.NewSettingsController(h.deps.Repos.User)
	billing := controllers.NewBillingController(h.deps.Config, h.deps.Stripe, h.deps.Prices, h.deps.Repos.User)

	v1 := api.Group("/v1", middleware.RequireUser(h.deps.Verifier, h.deps.Repos.User))

	v1.Get("/me", account.Me)

	v1.Get("/agents", agents.List)
	v1.Post("/agents", agents.Create)
	v1.Get("/agents/:uuid", agents.Get)
	v1.Put("/agents/:uuid", agents.Update)
	v1.Delete("/agents/:uuid", agents.Delete)

	v1.Get("/settings", settings.Get)
	v1.Put("/settings", settings.Update)

	v1.Post("/billing/checkout", billing.CreateCheckout)
	v1.Post("/billing/portal", billing.CreatePortal)
}
