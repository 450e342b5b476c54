package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/auth"
	"github.com/omniagency/omniagency/internal/pkg/billing"
	"github.com/omniagency/omniagency/internal/pkg/cache"
	"github.com/omniagency/omniagency/internal/pkg/config"
	"github.com/omniagency/omniagency/internal/pkg/database"
	"github.com/omniagency/omniagency/internal/pkg/env"
	"github.com/omniagency/omniagency/internal/pkg/identity"
	"github.com/omniagency/omniagency/internal/pkg/router"
)

func main() {
	app, cfg := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort))
	log.Fatal(err)
}

// NewApplication assembles the whole service. Missing billing or identity
// config is logged but never fatal: the affected routes fail closed at
// request time while the rest of the app keeps serving.
func NewApplication() (*fiber.App, *config.Config) {
	env.SetupEnvFile()
	cfg := config.Load()
	for _, warning := range cfg.Warnings() {
		log.Printf("config: %s", warning)
	}

	db, err := database.Setup(cfg)
	if err != nil {
		log.Fatalf("database setup failed: %v", err)
	}
	cache.Setup(cfg)

	repos := repository.NewFactory(db).GetRepositories()
	prices := billing.NewPriceTable(cfg.BasicPriceID, cfg.ProPriceID, cfg.EnterprisePriceID)

	var stripeClient *billing.Client
	if cfg.StripeSecretKey != "" {
		stripeClient = billing.NewClient(cfg.StripeSecretKey)
	}
	// A nil *Client must stay a nil interface value for the nil checks in
	// the handlers to work.
	var provider billing.ProviderClient
	var retriever billing.SubscriptionRetriever
	if stripeClient != nil {
		provider = stripeClient
		retriever = stripeClient
	}

	billingReconciler := billing.NewReconciler(repos.User, retriever, prices, cache.InvalidateUserPlan)
	identityReconciler := identity.NewReconciler(repos.User, repos.Agent)

	var verifier auth.TokenVerifier
	if cfg.ClerkIssuer != "" {
		v, err := auth.NewVerifier(cfg.ClerkIssuer, cfg.ClerkJWKSURL)
		if err != nil {
			log.Printf("auth verifier setup failed, API auth disabled: %v", err)
		} else {
			verifier = v
		}
	}

	app := fiber.New(fiber.Config{
		AppName: "omniagency",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app, router.Deps{
		Config:   cfg,
		Repos:    repos,
		Stripe:   provider,
		Prices:   prices,
		Billing:  billingReconciler,
		Identity: identityReconciler,
		Verifier: verifier,
	})

	return app, cfg
}
