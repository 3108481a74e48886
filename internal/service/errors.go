package service

import "errors"

// Domain errors surfaced to the API boundary. Handlers translate them into
// HTTP statuses with errors.Is.
var (
	ErrJobNotFound           = errors.New("video job not found")
	ErrInvalidPlan           = errors.New("invalid plan selected")
	ErrSubscriptionNotActive = errors.New("subscription not active")
	ErrNoActiveSubscription  = errors.New("no active subscription found")
)
