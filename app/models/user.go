package models

import (
	"strings"
	"time"
)

// Plan tiers. PlanID on User is derived state: it is recomputed from the
// Stripe price ID on every relevant billing event, never edited directly.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// User mirrors one authenticated identity. Profile fields are last-write-wins
// from Clerk; billing fields are projected from Stripe webhook events keyed by
// StripeCustomerID.
type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ClerkID          string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"clerk_id"`
	Email            string     `gorm:"type:varchar(200);not null;uniqueIndex" json:"email"`
	Name             string     `gorm:"type:varchar(150);default:''" json:"name"`
	AvatarURL        string     `gorm:"type:varchar(500);default:''" json:"avatar_url"`
	StripeCustomerID *string    `gorm:"type:varchar(191);uniqueIndex;default:null" json:"stripe_customer_id,omitempty"`
	SubscriptionID   *string    `gorm:"type:varchar(191);default:null" json:"subscription_id,omitempty"`
	PlanID           string     `gorm:"type:varchar(20);not null;default:'free'" json:"plan_id"`
	CurrentPeriodEnd *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	DefaultAgentName string     `gorm:"type:varchar(50);default:''" json:"default_agent_name"`
	WelcomeMessage   string     `gorm:"type:varchar(200);default:''" json:"welcome_message"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NormalizePlan maps arbitrary plan strings onto a known tier, falling back to
// free.
func NormalizePlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case PlanBasic:
		return PlanBasic
	case PlanPro:
		return PlanPro
	case PlanEnterprise:
		return PlanEnterprise
	default:
		return PlanFree
	}
}

// IsPaidPlan reports whether the tier is billed through Stripe.
func IsPaidPlan(plan string) bool {
	switch NormalizePlan(plan) {
	case PlanBasic, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}
