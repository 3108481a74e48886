package model

import "time"

// PlanTier is the commercial tier a user sits on.
type PlanTier string

const (
	TierFree   PlanTier = "free"
	TierPro    PlanTier = "pro"
	TierAgency PlanTier = "agency"
)

// SubscriptionStatus is the locally mirrored lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionNone      SubscriptionStatus = "none"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// UnlimitedVideos is the quota sentinel applied to paid tiers. Both paid
// plans receive the same effectively unbounded limit; tiers differ by price
// and features, not by quota.
const UnlimitedVideos = 999999

// UserSubscription is the subscription sub-record embedded on a user profile.
// It is an eventually stale mirror of the remote provider's state.
type UserSubscription struct {
	Tier                 PlanTier           `db:"subscription_tier" json:"tier"`
	Status               SubscriptionStatus `db:"subscription_status" json:"status"`
	PayPalSubscriptionID *string            `db:"paypal_subscription_id" json:"paypal_subscription_id,omitempty"`
	CurrentPeriodEnd     *time.Time         `db:"current_period_end" json:"current_period_end,omitempty"`
	VideosUsed           int                `db:"videos_used" json:"videos_used"`
	VideoLimit           int                `db:"video_limit" json:"video_limit"`
	CancelledAt          *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// User represents a user profile with its embedded subscription mirror.
type User struct {
	UserID       string           `db:"user_id" json:"user_id"`
	Name         string           `db:"name" json:"name"`
	Email        string           `db:"email" json:"email"`
	Subscription UserSubscription `json:"subscription"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}
