package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
	"github.com/omniagency/omniagency/internal/pkg/identity"
)

// ClerkWebhookController receives Clerk user lifecycle deliveries and mirrors
// them into the local user table via the identity reconciler.
type ClerkWebhookController struct {
	secret     string
	reconciler *identity.Reconciler
	events     repository.WebhookEventRepository
}

func NewClerkWebhookController(secret string, reconciler *identity.Reconciler, events repository.WebhookEventRepository) *ClerkWebhookController {
	return &ClerkWebhookController{
		secret:     secret,
		reconciler: reconciler,
		events:     events,
	}
}

// HandleWebhook verifies the Svix signature, deduplicates the delivery and
// applies it. The mapped status codes drive Clerk's redelivery behavior: 400
// for anything unverifiable, 404 when an update races its create, 200 once
// the local row reflects the event.
func (ct *ClerkWebhookController) HandleWebhook(c *fiber.Ctx) error {
	if ct.secret == "" {
		log.Printf("[ClerkWebhook] rejected delivery: no webhook secret configured")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Webhook secret not configured"})
	}

	headers := identity.SignatureHeaders{
		ID:        c.Get("svix-id"),
		Timestamp: c.Get("svix-timestamp"),
		Signature: c.Get("svix-signature"),
	}
	if !headers.Complete() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing svix headers"})
	}

	body := append([]byte(nil), c.Body()...)
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Empty request body"})
	}
	if !identity.VerifySignature(body, headers, ct.secret) {
		log.Printf("[ClerkWebhook] signature verification failed for delivery %s", headers.ID)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	evt, err := identity.ParseEvent(body)
	if err != nil {
		log.Printf("[ClerkWebhook] unparseable payload in delivery %s: %v", headers.ID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	created, stored, err := ct.events.CreateIfNotExists(&models.WebhookEvent{
		Provider:        models.WebhookProviderClerk,
		ProviderEventID: headers.ID,
		EventType:       evt.Type,
		PayloadJSON:     string(body),
	})
	if err != nil {
		log.Printf("[ClerkWebhook] failed to record delivery %s: %v", headers.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record event"})
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		log.Printf("[ClerkWebhook] duplicate delivery %s, skipping", headers.ID)
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	outcome, applyErr := ct.reconciler.Apply(evt)
	switch {
	case applyErr != nil && outcome == identity.OutcomeSkipped:
		// Verified delivery with unusable content. The stamped error keeps
		// the redelivery out of the duplicate short-circuit, so the same
		// payload answers 400 every time.
		if err := ct.events.MarkProcessed(stored.ID, applyErr.Error()); err != nil {
			log.Printf("[ClerkWebhook] failed to mark delivery %s: %v", headers.ID, err)
		}
		log.Printf("[ClerkWebhook] skipping delivery %s: %v", headers.ID, applyErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required event data"})
	case applyErr != nil:
		if err := ct.events.MarkProcessed(stored.ID, applyErr.Error()); err != nil {
			log.Printf("[ClerkWebhook] failed to mark delivery %s: %v", headers.ID, err)
		}
		log.Printf("[ClerkWebhook] processing delivery %s (%s) failed: %v", headers.ID, evt.Type, applyErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process event"})
	case outcome == identity.OutcomeNotFound:
		// Recorded with an error so the redelivery reprocesses once the
		// create has landed instead of short-circuiting as a duplicate.
		if err := ct.events.MarkProcessed(stored.ID, "user not found"); err != nil {
			log.Printf("[ClerkWebhook] failed to mark delivery %s: %v", headers.ID, err)
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if err := ct.events.MarkProcessed(stored.ID, ""); err != nil {
		log.Printf("[ClerkWebhook] failed to mark delivery %s: %v", headers.ID, err)
	}
	return c.JSON(fiber.Map{"received": true, "duplicate": outcome == identity.OutcomeDuplicate})
}
