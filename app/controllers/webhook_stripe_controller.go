package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/billing"
)

// StripeWebhookController receives Stripe event deliveries and feeds them
// into the billing reconciler. The endpoint is unauthenticated; trust comes
// exclusively from the signature header.
type StripeWebhookController struct {
	secret     string
	reconciler *billing.Reconciler
	events     repository.WebhookEventRepository
}

func NewStripeWebhookController(secret string, reconciler *billing.Reconciler, events repository.WebhookEventRepository) *StripeWebhookController {
	return &StripeWebhookController{
		secret:     secret,
		reconciler: reconciler,
		events:     events,
	}
}

// HandleWebhook validates the delivery, deduplicates it and applies it to the
// local state. Unverified or malformed requests are rejected with 400 before
// any payload inspection happens.
func (ct *StripeWebhookController) HandleWebhook(c *fiber.Ctx) error {
	if ct.secret == "" {
		// Without a configured secret no delivery can be verified.
		log.Printf("[StripeWebhook] rejected delivery: no webhook secret configured")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Webhook secret not configured"})
	}

	sigHeader := c.Get("Stripe-Signature")
	if sigHeader == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing Stripe-Signature header"})
	}

	body := append([]byte(nil), c.Body()...)
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Empty request body"})
	}

	event, err := billing.ConstructEvent(body, sigHeader, ct.secret)
	if err != nil {
		log.Printf("[StripeWebhook] signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	created, stored, err := ct.events.CreateIfNotExists(&models.WebhookEvent{
		Provider:        models.WebhookProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(body),
	})
	if err != nil {
		log.Printf("[StripeWebhook] failed to record event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record event"})
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		// Redelivery of an event we already applied. Acknowledge without
		// reprocessing; earlier failed attempts fall through and retry.
		log.Printf("[StripeWebhook] duplicate delivery of event %s, skipping", event.ID)
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	if procErr := ct.reconciler.Process(event); procErr != nil {
		if err := ct.events.MarkProcessed(stored.ID, procErr.Error()); err != nil {
			log.Printf("[StripeWebhook] failed to mark event %s: %v", event.ID, err)
		}
		log.Printf("[StripeWebhook] processing event %s (%s) failed: %v", event.ID, event.Type, procErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process event"})
	}

	if err := ct.events.MarkProcessed(stored.ID, ""); err != nil {
		log.Printf("[StripeWebhook] failed to mark event %s: %v", event.ID, err)
	}
	return c.JSON(fiber.Map{"received": true})
}
