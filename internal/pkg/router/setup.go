package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/auth"
	"github.com/omniagency/omniagency/internal/pkg/billing"
	"github.com/omniagency/omniagency/internal/pkg/config"
	"github.com/omniagency/omniagency/internal/pkg/identity"
)

// Deps carries everything the routers need. All dependencies are constructed
// by the process bootstrap and injected here; routers hold no globals.
type Deps struct {
	Config   *config.Config
	Repos    *repository.Repositories
	Stripe   billing.ProviderClient
	Prices   *billing.PriceTable
	Billing  *billing.Reconciler
	Identity *identity.Reconciler
	Verifier auth.TokenVerifier
}

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires all route groups onto the app. Webhook routes install
// first so they never pick up auth or rate-limit middleware.
func InstallRouter(app *fiber.App, deps Deps) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
