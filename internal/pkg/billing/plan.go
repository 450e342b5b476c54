package billing

import (
	"strings"

	"github.com/omniagency/omniagency/app/models"
)

// PriceTable maps Stripe price identifiers to internal plan tiers and back.
// The table is fixed at startup from configuration; an unrecognized price
// resolves to the free plan (fail-soft, the billing side must never be blocked
// by a local mapping gap).
type PriceTable struct {
	byPrice map[string]string
	byPlan  map[string]string
}

// NewPriceTable builds the mapping from the configured per-tier price IDs.
// Empty price IDs are left unmapped so the dependent endpoint fails closed.
func NewPriceTable(basicPriceID, proPriceID, enterprisePriceID string) *PriceTable {
	t := &PriceTable{
		byPrice: make(map[string]string, 3),
		byPlan:  make(map[string]string, 3),
	}
	t.add(models.PlanBasic, basicPriceID)
	t.add(models.PlanPro, proPriceID)
	t.add(models.PlanEnterprise, enterprisePriceID)
	return t
}

func (t *PriceTable) add(plan, priceID string) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return
	}
	t.byPrice[priceID] = plan
	t.byPlan[plan] = priceID
}

// PlanForPrice resolves a Stripe price ID to a plan tier. ok is false for
// unknown prices; callers log a warning and fall back to free.
func (t *PriceTable) PlanForPrice(priceID string) (string, bool) {
	plan, ok := t.byPrice[strings.TrimSpace(priceID)]
	if !ok {
		return models.PlanFree, false
	}
	return plan, true
}

// PriceForPlan resolves a plan tier to its configured Stripe price ID.
// Returns "" when the tier has no configured price.
func (t *PriceTable) PriceForPlan(plan string) string {
	return t.byPlan[models.NormalizePlan(plan)]
}
