package model

import "time"

// Plan is an offered subscription plan. The IDs match the billing plans
// provisioned at the payment provider.
type Plan struct {
	ID          string
	Name        string
	Description string
	Tier        PlanTier
	PriceCents  int
}

// Plans is the closed set of purchasable plans.
var Plans = map[string]Plan{
	"pro-monthly": {
		ID:          "pro-monthly",
		Name:        "Pro Creator",
		Description: "Unlimited video generations with premium features",
		Tier:        TierPro,
		PriceCents:  1900,
	},
	"agency-monthly": {
		ID:          "agency-monthly",
		Name:        "Agency Plan",
		Description: "Everything in Pro plus white-label and API access",
		Tier:        TierAgency,
		PriceCents:  4900,
	},
}

// PlanByID returns the plan for id, if offered.
func PlanByID(id string) (Plan, bool) {
	p, ok := Plans[id]
	return p, ok
}

// SubscriptionRecord is the persisted local mirror of one remote
// subscription. Created on successful activation, updated on cancellation or
// reconciliation, never deleted.
type SubscriptionRecord struct {
	ID                   string             `db:"id" json:"id"`
	UserID               string             `db:"user_id" json:"user_id"`
	PayPalSubscriptionID string             `db:"paypal_subscription_id" json:"paypal_subscription_id"`
	PlanID               string             `db:"plan_id" json:"plan_id"`
	Status               SubscriptionStatus `db:"status" json:"status"`
	CurrentPeriodStart   time.Time          `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd     time.Time          `db:"current_period_end" json:"current_period_end"`
	CancelAtPeriodEnd    bool               `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CancelledAt          *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt            time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updated_at"`
}
