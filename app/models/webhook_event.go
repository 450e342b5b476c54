package models

import "time"

// Webhook provider constants used across webhook-related models.
const (
	WebhookProviderStripe = "stripe"
	WebhookProviderClerk  = "clerk"
)

// WebhookEvent stores received webhook payloads with deduplication metadata.
// This is a record-only ledger: projection never reads it to decide what to
// write, it only deduplicates provider redeliveries and keeps an audit trail
// (including record-only events like invoice.payment_failed).
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_webhook_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;index:ux_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
