package reconcile

import (
	"context"
	"time"

	"reelgen/internal/config"
	"reelgen/internal/model"
	"reelgen/internal/paypal"
	"reelgen/internal/repository"

	"github.com/rs/zerolog"
)

// remoteToLocal maps the payment provider's subscription status onto the
// local lifecycle state. Unknown remote states map to empty and are skipped.
func remoteToLocal(remote string) model.SubscriptionStatus {
	switch remote {
	case paypal.StatusActive:
		return model.SubscriptionActive
	case paypal.StatusSuspended:
		return model.SubscriptionSuspended
	case paypal.StatusCancelled:
		return model.SubscriptionCancelled
	case paypal.StatusExpired:
		return model.SubscriptionExpired
	default:
		return ""
	}
}

// Run starts the reconciliation sweep. Every interval it pages through
// locally active subscriptions, fetches the provider's view and converges
// local state on any drift. The provider remains the source of truth.
func Run(ctx context.Context, logger zerolog.Logger, cfg *config.Config, subs repository.SubscriptionRepository, payments paypal.Client) error {
	interval := time.Duration(cfg.ReconcileIntervalSec) * time.Second
	logger.Info().Str("interval", interval.String()).Msg("Starting subscription reconciler")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := sweep(ctx, logger, cfg, subs, payments); err != nil {
			logger.Error().Err(err).Msg("Reconciliation sweep failed")
		}
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down subscription reconciler")
			return nil
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, logger zerolog.Logger, cfg *config.Config, subs repository.SubscriptionRepository, payments paypal.Client) error {
	records, err := subs.ListActive(ctx, cfg.ReconcileBatchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	logger.Info().Int("count", len(records)).Msg("Reconciling active subscriptions")

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		remote, err := payments.GetSubscription(ctx, rec.PayPalSubscriptionID)
		if err != nil {
			logger.Warn().Err(err).Str("subscription_id", rec.PayPalSubscriptionID).Msg("Failed to fetch remote subscription, skipping")
			continue
		}
		local := remoteToLocal(remote.Status)
		if local == "" {
			logger.Warn().Str("subscription_id", rec.PayPalSubscriptionID).Str("remote_status", remote.Status).Msg("Unrecognized remote status, skipping")
			continue
		}
		if local == rec.Status {
			continue
		}
		logger.Info().
			Str("subscription_id", rec.PayPalSubscriptionID).
			Str("local_status", string(rec.Status)).
			Str("remote_status", remote.Status).
			Msg("Subscription drifted, converging local state")
		if err := subs.SyncRemoteStatus(ctx, rec.PayPalSubscriptionID, local, time.Now().UTC()); err != nil {
			logger.Error().Err(err).Str("subscription_id", rec.PayPalSubscriptionID).Msg("Failed to sync subscription status")
		}
	}
	return nil
}
