package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/billing"
	"github.com/omniagency/omniagency/internal/pkg/config"
	"github.com/omniagency/omniagency/internal/pkg/usercontext"
)

// BillingController creates Stripe checkout and billing portal sessions for
// the authenticated user. Billing config is only enforced here, at request
// time: a deployment without Stripe keys boots fine and fails these routes.
type BillingController struct {
	cfg    *config.Config
	client billing.ProviderClient
	prices *billing.PriceTable
	users  repository.UserRepository
}

func NewBillingController(cfg *config.Config, client billing.ProviderClient, prices *billing.PriceTable, users repository.UserRepository) *BillingController {
	return &BillingController{cfg: cfg, client: client, prices: prices, users: users}
}

type checkoutForm struct {
	Plan string `json:"plan" validate:"required"`
}

// CreateCheckout starts a subscription checkout for a self-serve paid plan
// and returns the hosted session URL.
func (ct *BillingController) CreateCheckout(c *fiber.Ctx) error {
	if ct.cfg.StripeSecretKey == "" || ct.client == nil {
		return billingUnavailable(c)
	}

	var form checkoutForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&form); err != nil {
		return validationFailed(c, err)
	}

	plan := models.NormalizePlan(form.Plan)
	if plan == models.PlanEnterprise {
		// Enterprise is sold through sales, never through self-serve checkout.
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Enterprise plans are handled by sales, please contact us",
		})
	}
	if !models.IsPaidPlan(plan) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Plan cannot be checked out",
		})
	}
	priceID := ct.prices.PriceForPlan(plan)
	if priceID == "" {
		log.Printf("[BillingController] no price configured for plan %s", plan)
		return billingUnavailable(c)
	}

	uc := usercontext.GetUserContext(c)
	user, err := ct.users.GetByID(uc.UserID)
	if err != nil {
		log.Printf("[BillingController] loading user %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
	}

	customerID, err := ct.ensureCustomer(user)
	if err != nil {
		log.Printf("[BillingController] resolving customer for user %d failed: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve billing customer"})
	}

	url, err := ct.client.CreateCheckoutSession(
		customerID,
		priceID,
		user.ClerkID,
		plan,
		ct.cfg.BillingRedirectURL("/billing?checkout=success&plan="+plan),
		ct.cfg.BillingRedirectURL("/billing?checkout=cancelled"),
	)
	if err != nil {
		log.Printf("[BillingController] creating checkout session for user %d failed: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create checkout session"})
	}
	return c.JSON(fiber.Map{"url": url})
}

// CreatePortal opens a Stripe billing portal session. Users without a linked
// customer have nothing to manage yet.
func (ct *BillingController) CreatePortal(c *fiber.Ctx) error {
	if ct.cfg.StripeSecretKey == "" || ct.client == nil {
		return billingUnavailable(c)
	}

	uc := usercontext.GetUserContext(c)
	user, err := ct.users.GetByID(uc.UserID)
	if err != nil {
		log.Printf("[BillingController] loading user %d failed: %v", uc.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
	}
	if user.StripeCustomerID == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "No billing account yet"})
	}

	url, err := ct.client.CreateBillingPortalSession(*user.StripeCustomerID, ct.cfg.BillingRedirectURL("/billing"))
	if err != nil {
		log.Printf("[BillingController] creating portal session for user %d failed: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create portal session"})
	}
	return c.JSON(fiber.Map{"url": url})
}

// ensureCustomer resolves the user's Stripe customer, in order: the locally
// linked ID, an existing Stripe customer with the same email, a freshly
// created one. Whatever is found gets linked back onto the user row.
func (ct *BillingController) ensureCustomer(user *models.User) (string, error) {
	if user.StripeCustomerID != nil {
		return *user.StripeCustomerID, nil
	}

	customerID, err := ct.client.FindCustomerByEmail(user.Email)
	if err != nil {
		return "", err
	}
	if customerID == "" {
		customerID, err = ct.client.CreateCustomer(user.Email, user.Name, user.ClerkID)
		if err != nil {
			return "", err
		}
	}

	if err := ct.users.LinkStripeCustomer(user.ID, customerID); err != nil {
		if repository.IsDuplicateKey(err) {
			// A webhook linked a customer concurrently; reread and use it.
			if fresh, ferr := ct.users.GetByID(user.ID); ferr == nil && fresh.StripeCustomerID != nil {
				return *fresh.StripeCustomerID, nil
			}
		}
		return "", err
	}
	return customerID, nil
}

func billingUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Billing is not configured",
	})
}
