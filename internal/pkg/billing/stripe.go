package billing

import (
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SubscriptionDetail is the provider-neutral shape the reconciler projects
// from. Built from Stripe subscription objects so nothing downstream touches
// stripe-go types.
type SubscriptionDetail struct {
	ID               string
	CustomerID       string
	PriceID          string
	Status           string
	CurrentPeriodEnd time.Time
}

// SubscriptionRetriever is the single outbound call the webhook reconciler
// needs; the full Client satisfies it.
type SubscriptionRetriever interface {
	RetrieveSubscription(id string) (*SubscriptionDetail, error)
}

// ProviderClient is the outbound Stripe surface the billing endpoints depend
// on. The full Client satisfies it.
type ProviderClient interface {
	SubscriptionRetriever
	FindCustomerByEmail(email string) (string, error)
	CreateCustomer(email, name, clerkUserID string) (string, error)
	CreateCheckoutSession(customerID, priceID, clerkUserID, planID, successURL, cancelURL string) (string, error)
	CreateBillingPortalSession(customerID, returnURL string) (string, error)
}

// Client wraps the Stripe API behind an explicitly constructed instance.
// The lifecycle is owned by the process bootstrap; no package-global key.
type Client struct {
	api *stripeclient.API
}

// NewClient builds a Stripe client from the configured secret key.
func NewClient(secretKey string) *Client {
	return &Client{api: stripeclient.New(secretKey, nil)}
}

// FindCustomerByEmail returns the first Stripe customer with the given email,
// or "" when none exists.
func (c *Client) FindCustomerByEmail(email string) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)
	iter := c.api.Customers.List(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list stripe customers: %w", err)
	}
	return "", nil
}

// CreateCustomer creates a Stripe customer carrying the Clerk user ID in
// metadata and returns the customer ID.
func (c *Client) CreateCustomer(email, name, clerkUserID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.AddMetadata("clerkUserId", clerkUserID)

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cust.ID, nil
}

// RetrieveSubscription fetches a subscription by ID and normalizes it.
func (c *Client) RetrieveSubscription(id string) (*SubscriptionDetail, error) {
	sub, err := c.api.Subscriptions.Get(id, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription %s: %w", id, err)
	}
	detail := &SubscriptionDetail{
		ID:     sub.ID,
		Status: string(sub.Status),
	}
	if sub.Customer != nil {
		detail.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			detail.PriceID = item.Price.ID
		}
		if item.CurrentPeriodEnd > 0 {
			detail.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		}
	}
	return detail, nil
}

// CreateCheckoutSession creates a subscription-mode checkout session and
// returns its redirect URL. Metadata links the session back to the local user
// for the webhook reconciler.
func (c *Client) CreateCheckoutSession(customerID, priceID, clerkUserID, planID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.AddMetadata("clerkUserId", clerkUserID)
	params.AddMetadata("planId", planID)

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreateBillingPortalSession creates a billing portal session and returns its
// redirect URL.
func (c *Client) CreateBillingPortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// ConstructEvent verifies the webhook signature against the signing secret and
// returns the parsed event. Verification failures discard the event; Stripe's
// own redelivery is the only retry mechanism.
func ConstructEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
