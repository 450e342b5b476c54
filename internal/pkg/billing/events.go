package billing

// EventKind is a closed set over the Stripe event types this service acts on.
// Dispatching on the kind instead of raw event-type strings keeps the switch
// exhaustive and gives unrecognized events an explicit variant.
type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventCheckoutCompleted
	EventSubscriptionCreated
	EventSubscriptionUpdated
	EventSubscriptionDeleted
	EventInvoicePaymentSucceeded
	EventInvoicePaymentFailed
)

// KindOf classifies a Stripe event-type tag.
func KindOf(eventType string) EventKind {
	switch eventType {
	case "checkout.session.completed":
		return EventCheckoutCompleted
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	case "invoice.payment_succeeded":
		return EventInvoicePaymentSucceeded
	case "invoice.payment_failed":
		return EventInvoicePaymentFailed
	default:
		return EventUnrecognized
	}
}

func (k EventKind) String() string {
	switch k {
	case EventCheckoutCompleted:
		return "checkout.session.completed"
	case EventSubscriptionCreated:
		return "customer.subscription.created"
	case EventSubscriptionUpdated:
		return "customer.subscription.updated"
	case EventSubscriptionDeleted:
		return "customer.subscription.deleted"
	case EventInvoicePaymentSucceeded:
		return "invoice.payment_succeeded"
	case EventInvoicePaymentFailed:
		return "invoice.payment_failed"
	default:
		return "unrecognized"
	}
}
