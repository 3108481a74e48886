package service

import (
	"context"
	"fmt"
	"time"

	"reelgen/internal/model"
	"reelgen/internal/paypal"
	"reelgen/internal/repository"

	"github.com/rs/zerolog"
)

// SubscribeResult is returned when a remote subscription has been created and
// awaits payer approval.
type SubscribeResult struct {
	SubscriptionID string
	ApprovalURL    string
}

// SubscriptionStatus is the combined local mirror and remote snapshot.
type SubscriptionStatus struct {
	Local  model.UserSubscription
	Remote *paypal.Subscription
}

// SubscriptionService keeps the local subscription mirror in sync with the
// payment provider, which remains the source of truth for billing state.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID, planID string) (*SubscribeResult, error)
	Approve(ctx context.Context, userID, subscriptionID string) error
	Cancel(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (*SubscriptionStatus, error)
}

type subscriptionService struct {
	users        repository.UserRepository
	subs         repository.SubscriptionRepository
	payments     paypal.Client
	strictRemote bool
	logger       zerolog.Logger
}

// NewSubscriptionService creates a SubscriptionService with a scoped logger.
// strictRemote controls whether Status fails when the remote fetch does.
func NewSubscriptionService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	payments paypal.Client,
	strictRemote bool,
	logger zerolog.Logger,
) SubscriptionService {
	return &subscriptionService{
		users:        users,
		subs:         subs,
		payments:     payments,
		strictRemote: strictRemote,
		logger:       logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, planID string) (*SubscribeResult, error) {
	if _, ok := model.PlanByID(planID); !ok {
		return nil, ErrInvalidPlan
	}

	sub, err := s.payments.CreateSubscription(ctx, planID, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("plan_id", planID).Msg("Failed to create remote subscription")
		return nil, err
	}
	approvalURL := sub.ApprovalURL()
	if approvalURL == "" {
		s.logger.Error().Str("subscription_id", sub.ID).Msg("Remote subscription carries no approval link")
		return nil, fmt.Errorf("%w: missing approval link", paypal.ErrProvider)
	}

	// No local record yet: the subscription only becomes real on approval.
	s.logger.Info().Str("user_id", userID).Str("subscription_id", sub.ID).Msg("Remote subscription created, awaiting approval")
	return &SubscribeResult{SubscriptionID: sub.ID, ApprovalURL: approvalURL}, nil
}

func (s *subscriptionService) Approve(ctx context.Context, userID, subscriptionID string) error {
	sub, err := s.payments.GetSubscription(ctx, subscriptionID)
	if err != nil {
		s.logger.Error().Err(err).Str("subscription_id", subscriptionID).Msg("Failed to fetch remote subscription for approval")
		return err
	}
	if sub.Status != paypal.StatusActive {
		s.logger.Warn().Str("subscription_id", subscriptionID).Str("remote_status", sub.Status).Msg("Approval attempted on inactive remote subscription")
		return ErrSubscriptionNotActive
	}

	tier := model.TierAgency
	if plan, ok := model.PlanByID(sub.PlanID); ok {
		tier = plan.Tier
	}

	err = s.subs.Activate(ctx, repository.ActivateParams{
		UserID:               userID,
		PayPalSubscriptionID: sub.ID,
		PlanID:               sub.PlanID,
		Tier:                 tier,
		CurrentPeriodStart:   time.Now().UTC(),
		CurrentPeriodEnd:     sub.BillingInfo.NextBillingTime,
		VideoLimit:           model.UnlimitedVideos,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("subscription_id", sub.ID).Msg("Failed to activate subscription locally")
		return fmt.Errorf("activate subscription: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("subscription_id", sub.ID).Str("plan_id", sub.PlanID).Msg("Subscription activated")
	return nil
}

func (s *subscriptionService) Cancel(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return repository.ErrUserNotFound
	}
	if user.Subscription.PayPalSubscriptionID == nil || *user.Subscription.PayPalSubscriptionID == "" {
		return ErrNoActiveSubscription
	}
	remoteID := *user.Subscription.PayPalSubscriptionID

	if err := s.payments.CancelSubscription(ctx, remoteID, "User requested cancellation"); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("subscription_id", remoteID).Msg("Failed to cancel remote subscription")
		return err
	}

	// One transactional write covers the user mirror and the record; if it
	// fails after the remote cancel, the reconcile sweep converges the
	// mirror on its next pass.
	if err := s.subs.Cancel(ctx, userID, remoteID, time.Now().UTC()); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("subscription_id", remoteID).Msg("Remote cancelled but local mirror update failed; reconciler will converge")
		return fmt.Errorf("cancel subscription locally: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Str("subscription_id", remoteID).Msg("Subscription cancelled")
	return nil
}

func (s *subscriptionService) Status(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, repository.ErrUserNotFound
	}

	status := &SubscriptionStatus{Local: user.Subscription}
	if user.Subscription.PayPalSubscriptionID == nil || *user.Subscription.PayPalSubscriptionID == "" {
		return status, nil
	}

	remote, err := s.payments.GetSubscription(ctx, *user.Subscription.PayPalSubscriptionID)
	if err != nil {
		if s.strictRemote {
			return nil, err
		}
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Remote status fetch failed, returning local mirror only")
		return status, nil
	}
	status.Remote = remote
	return status, nil
}
