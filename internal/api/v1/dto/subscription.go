package dto

import "time"

type SubscriptionCreateDTO struct {
	PlanID string `json:"plan_id" validate:"required"`
}

type SubscriptionCreateResponseDTO struct {
	SubscriptionID string `json:"subscription_id"`
	ApprovalURL    string `json:"approval_url"`
}

type SubscriptionApproveDTO struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`
}

type SubscriptionStatusResponseDTO struct {
	Tier             string     `json:"tier"`
	Status           string     `json:"status"`
	VideosUsed       int        `json:"videos_used"`
	VideoLimit       int        `json:"video_limit"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	RemoteStatus     string     `json:"remote_status,omitempty"`
}

type MessageResponseDTO struct {
	Message string `json:"message"`
}
