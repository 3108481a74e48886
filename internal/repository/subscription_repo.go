package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reelgen/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivateParams carries everything needed to mirror a newly approved remote
// subscription locally.
type ActivateParams struct {
	UserID               string
	PayPalSubscriptionID string
	PlanID               string
	Tier                 model.PlanTier
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	VideoLimit           int
}

// SubscriptionRepository defines persistence for subscription records and the
// transactional writes that keep the user mirror and the records consistent.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.SubscriptionRecord, error)
	// Activate updates the user's embedded subscription mirror and inserts
	// one subscription record in a single transaction.
	Activate(ctx context.Context, p ActivateParams) error
	// Cancel marks the user mirror and the matching record cancelled in a
	// single transaction. Idempotent: re-running it is harmless.
	Cancel(ctx context.Context, userID, paypalSubscriptionID string, at time.Time) error
	// ListActive returns records still in a non-terminal state, oldest
	// sync first, for the reconciliation sweep.
	ListActive(ctx context.Context, limit int) ([]model.SubscriptionRecord, error)
	// SyncRemoteStatus applies a remote-observed status to both the record
	// and the owning user's mirror in a single transaction.
	SyncRemoteStatus(ctx context.Context, paypalSubscriptionID string, status model.SubscriptionStatus, at time.Time) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) GetByUserID(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	const q = `
        SELECT id, user_id, paypal_subscription_id, plan_id, status,
               current_period_start, current_period_end, cancel_at_period_end,
               cancelled_at, created_at, updated_at
        FROM subscription_records
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `
	var s model.SubscriptionRecord
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&s.ID, &s.UserID, &s.PayPalSubscriptionID, &s.PlanID, &s.Status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd,
		&s.CancelledAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription record for user %s: %w", userID, err)
	}
	return &s, nil
}

func (r *subscriptionRepo) Activate(ctx context.Context, p ActivateParams) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting activation transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const userQ = `
        UPDATE user_profiles
        SET subscription_status = 'active',
            subscription_tier = $2,
            paypal_subscription_id = $3,
            current_period_end = $4,
            video_limit = $5,
            cancelled_at = NULL,
            updated_at = NOW()
        WHERE user_id = $1
    `
	tag, err := tx.Exec(ctx, userQ, p.UserID, p.Tier, p.PayPalSubscriptionID, p.CurrentPeriodEnd, p.VideoLimit)
	if err != nil {
		return fmt.Errorf("activate subscription for user %s: %w", p.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	const recordQ = `
        INSERT INTO subscription_records
            (user_id, paypal_subscription_id, plan_id, status, current_period_start, current_period_end)
        VALUES ($1, $2, $3, 'active', $4, $5)
        ON CONFLICT (paypal_subscription_id) DO UPDATE
        SET status = 'active',
            plan_id = EXCLUDED.plan_id,
            current_period_start = EXCLUDED.current_period_start,
            current_period_end = EXCLUDED.current_period_end,
            cancelled_at = NULL,
            updated_at = NOW()
    `
	if _, err := tx.Exec(ctx, recordQ, p.UserID, p.PayPalSubscriptionID, p.PlanID, p.CurrentPeriodStart, p.CurrentPeriodEnd); err != nil {
		return fmt.Errorf("insert subscription record for user %s: %w", p.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing activation for user %s: %w", p.UserID, err)
	}
	return nil
}

func (r *subscriptionRepo) Cancel(ctx context.Context, userID, paypalSubscriptionID string, at time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting cancellation transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const userQ = `
        UPDATE user_profiles
        SET subscription_status = 'cancelled',
            cancelled_at = $2,
            updated_at = NOW()
        WHERE user_id = $1
    `
	if _, err := tx.Exec(ctx, userQ, userID, at); err != nil {
		return fmt.Errorf("cancel subscription mirror for user %s: %w", userID, err)
	}

	const recordQ = `
        UPDATE subscription_records
        SET status = 'cancelled',
            cancelled_at = $2,
            updated_at = NOW()
        WHERE paypal_subscription_id = $1
    `
	if _, err := tx.Exec(ctx, recordQ, paypalSubscriptionID, at); err != nil {
		return fmt.Errorf("cancel subscription record %s: %w", paypalSubscriptionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing cancellation for user %s: %w", userID, err)
	}
	return nil
}

func (r *subscriptionRepo) ListActive(ctx context.Context, limit int) ([]model.SubscriptionRecord, error) {
	const q = `
        SELECT id, user_id, paypal_subscription_id, plan_id, status,
               current_period_start, current_period_end, cancel_at_period_end,
               cancelled_at, created_at, updated_at
        FROM subscription_records
        WHERE status = 'active'
        ORDER BY updated_at ASC
        LIMIT $1
    `
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list active subscription records: %w", err)
	}
	defer rows.Close()

	var records []model.SubscriptionRecord
	for rows.Next() {
		var s model.SubscriptionRecord
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.PayPalSubscriptionID, &s.PlanID, &s.Status,
			&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd,
			&s.CancelledAt, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription record: %w", err)
		}
		records = append(records, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active subscription records: %w", err)
	}
	return records, nil
}

func (r *subscriptionRepo) SyncRemoteStatus(ctx context.Context, paypalSubscriptionID string, status model.SubscriptionStatus, at time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting sync transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const recordQ = `
        UPDATE subscription_records
        SET status = $2,
            cancelled_at = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancelled_at END,
            updated_at = NOW()
        WHERE paypal_subscription_id = $1
    `
	if _, err := tx.Exec(ctx, recordQ, paypalSubscriptionID, status, at); err != nil {
		return fmt.Errorf("sync subscription record %s: %w", paypalSubscriptionID, err)
	}

	const userQ = `
        UPDATE user_profiles
        SET subscription_status = $2,
            cancelled_at = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancelled_at END,
            updated_at = NOW()
        WHERE paypal_subscription_id = $1
    `
	if _, err := tx.Exec(ctx, userQ, paypalSubscriptionID, status, at); err != nil {
		return fmt.Errorf("sync subscription mirror %s: %w", paypalSubscriptionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sync for %s: %w", paypalSubscriptionID, err)
	}
	return nil
}
