package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
)

// Reconciler projects verified Stripe events onto the local user table.
// Every projection is a full overwrite of the same fields from the same
// source event, so replaying an event is safe; the reconciler never reads its
// own prior output to decide what to write.
type Reconciler struct {
	users          repository.UserRepository
	stripe         SubscriptionRetriever
	prices         *PriceTable
	invalidatePlan func(userID uint)
}

// NewReconciler wires the reconciler's dependencies. invalidatePlan may be nil.
func NewReconciler(users repository.UserRepository, retriever SubscriptionRetriever, prices *PriceTable, invalidatePlan func(userID uint)) *Reconciler {
	return &Reconciler{
		users:          users,
		stripe:         retriever,
		prices:         prices,
		invalidatePlan: invalidatePlan,
	}
}

// Local payload shapes decoded from event.Data.Raw. Customer and subscription
// references arrive as plain ID strings in webhook payloads.
type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type invoicePayload struct {
	ID            string `json:"id"`
	BillingReason string `json:"billing_reason"`
	Subscription  string `json:"subscription"`
	Parent        *struct {
		SubscriptionDetails *struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// subscriptionID returns the invoice's subscription reference, preferring the
// legacy top-level field and falling back to the parent details introduced by
// newer API versions.
func (p invoicePayload) subscriptionID() string {
	if p.Subscription != "" {
		return p.Subscription
	}
	if p.Parent != nil && p.Parent.SubscriptionDetails != nil {
		return p.Parent.SubscriptionDetails.Subscription
	}
	return ""
}

// detail normalizes a webhook subscription payload.
func (p subscriptionPayload) detail() *SubscriptionDetail {
	d := &SubscriptionDetail{
		ID:         p.ID,
		CustomerID: p.Customer,
		Status:     p.Status,
	}
	periodEnd := p.CurrentPeriodEnd
	for _, item := range p.Items.Data {
		if d.PriceID == "" {
			d.PriceID = item.Price.ID
		}
		if periodEnd == 0 {
			periodEnd = item.CurrentPeriodEnd
		}
	}
	if periodEnd > 0 {
		d.CurrentPeriodEnd = time.Unix(periodEnd, 0).UTC()
	}
	return d
}

// Process dispatches a verified event. A nil return acknowledges the event to
// the sender, including events skipped for missing local matches; a non-nil
// return signals redelivery.
func (r *Reconciler) Process(event stripe.Event) error {
	switch KindOf(string(event.Type)) {
	case EventCheckoutCompleted:
		return r.handleCheckoutCompleted(event)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return r.handleSubscriptionChanged(event)
	case EventSubscriptionDeleted:
		return r.handleSubscriptionDeleted(event)
	case EventInvoicePaymentSucceeded:
		return r.handleInvoicePaymentSucceeded(event)
	case EventInvoicePaymentFailed:
		// Record-only: the event ledger keeps the payload, no state mutation.
		log.Printf("stripe webhook: invoice payment failed, event %s recorded", event.ID)
		return nil
	default:
		log.Printf("stripe webhook: ignoring event type %s", event.Type)
		return nil
	}
}

func (r *Reconciler) handleCheckoutCompleted(event stripe.Event) error {
	var sess checkoutSessionPayload
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	if sess.Mode != "" && sess.Mode != "subscription" {
		log.Printf("stripe webhook: checkout session %s is not subscription mode, skipping", sess.ID)
		return nil
	}

	clerkUserID := sess.Metadata["clerkUserId"]
	if clerkUserID == "" {
		// Unrecoverable for this event: without the correlation ID there is no
		// safe way to pick a user.
		log.Printf("stripe webhook: checkout session %s missing clerkUserId metadata, skipping", sess.ID)
		return nil
	}
	if sess.Customer == "" {
		log.Printf("stripe webhook: checkout session %s missing customer, skipping", sess.ID)
		return nil
	}

	user, err := r.users.GetByClerkID(clerkUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("stripe webhook: no user for clerk id %s, dropping checkout session %s", clerkUserID, sess.ID)
			return nil
		}
		return fmt.Errorf("lookup user %s: %w", clerkUserID, err)
	}

	if err := r.users.LinkStripeCustomer(user.ID, sess.Customer); err != nil {
		return fmt.Errorf("link customer %s to user %d: %w", sess.Customer, user.ID, err)
	}

	if sess.Subscription == "" {
		log.Printf("stripe webhook: checkout session %s has no subscription, customer linked only", sess.ID)
		return nil
	}

	if r.stripe == nil {
		// Webhook secret is set but the API key is not. Fail the delivery so
		// Stripe redelivers once configuration is complete.
		return fmt.Errorf("stripe client not configured, cannot fetch subscription %s", sess.Subscription)
	}
	detail, err := r.stripe.RetrieveSubscription(sess.Subscription)
	if err != nil {
		return err
	}
	if detail.CustomerID == "" {
		detail.CustomerID = sess.Customer
	}
	return r.project(detail)
}

func (r *Reconciler) handleSubscriptionChanged(event stripe.Event) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	return r.project(sub.detail())
}

func (r *Reconciler) handleSubscriptionDeleted(event stripe.Event) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	user, err := r.users.GetByStripeCustomerID(sub.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("stripe webhook: no user for customer %s, dropping subscription.deleted", sub.Customer)
			return nil
		}
		return fmt.Errorf("lookup customer %s: %w", sub.Customer, err)
	}

	fields := map[string]interface{}{
		"subscription_id":    nil,
		"plan_id":            models.PlanFree,
		"current_period_end": nil,
	}
	if err := r.users.UpdateFields(user.ID, fields); err != nil {
		return fmt.Errorf("clear subscription for user %d: %w", user.ID, err)
	}
	r.notifyPlanChanged(user.ID)
	log.Printf("stripe webhook: subscription %s deleted, user %d reverted to free", sub.ID, user.ID)
	return nil
}

func (r *Reconciler) handleInvoicePaymentSucceeded(event stripe.Event) error {
	var invoice invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}

	// Only cycle renewals refresh the period end; one-off and initial
	// invoices are already covered by the subscription events.
	if invoice.BillingReason != "subscription_cycle" {
		return nil
	}
	subID := invoice.subscriptionID()
	if subID == "" {
		return nil
	}

	if r.stripe == nil {
		return fmt.Errorf("stripe client not configured, cannot fetch subscription %s", subID)
	}
	detail, err := r.stripe.RetrieveSubscription(subID)
	if err != nil {
		return err
	}
	return r.project(detail)
}

// project overwrites the billing fields of the user matched by the
// subscription's customer ID. No matching user is a reconciliation failure:
// logged and dropped, never queued.
func (r *Reconciler) project(detail *SubscriptionDetail) error {
	user, err := r.users.GetByStripeCustomerID(detail.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("stripe webhook: no user for customer %s, dropping subscription %s", detail.CustomerID, detail.ID)
			return nil
		}
		return fmt.Errorf("lookup customer %s: %w", detail.CustomerID, err)
	}

	plan, known := r.prices.PlanForPrice(detail.PriceID)
	if !known {
		log.Printf("stripe webhook: warning: unrecognized price %q on subscription %s, mapping to free", detail.PriceID, detail.ID)
	}

	fields := map[string]interface{}{
		"subscription_id": detail.ID,
		"plan_id":         plan,
	}
	if detail.CurrentPeriodEnd.IsZero() {
		fields["current_period_end"] = nil
	} else {
		fields["current_period_end"] = detail.CurrentPeriodEnd
	}
	if err := r.users.UpdateFields(user.ID, fields); err != nil {
		return fmt.Errorf("project subscription %s onto user %d: %w", detail.ID, user.ID, err)
	}
	r.notifyPlanChanged(user.ID)
	log.Printf("stripe webhook: projected subscription %s (plan %s) onto user %d", detail.ID, plan, user.ID)
	return nil
}

func (r *Reconciler) notifyPlanChanged(userID uint) {
	if r.invalidatePlan != nil {
		r.invalidatePlan(userID)
	}
}
