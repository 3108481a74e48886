package repository

import (
	"context"
	"errors"
	"fmt"

	"reelgen/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVideoLimitExceeded is returned when a user has used up their video quota.
var ErrVideoLimitExceeded = errors.New("video_limit_exceeded")

// ErrUserNotFound is returned when no profile exists for the given user ID.
var ErrUserNotFound = errors.New("user_not_found")

// UserRepository defines methods for accessing user profiles and their
// embedded subscription mirror.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
	// ConsumeVideoCredit atomically increments videos_used only while it is
	// below video_limit. Returns ErrVideoLimitExceeded when the quota is
	// exhausted, ErrUserNotFound when the profile does not exist.
	ConsumeVideoCredit(ctx context.Context, userID string) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	const q = `
        SELECT user_id, name, email,
               subscription_tier, subscription_status, paypal_subscription_id,
               current_period_end, videos_used, video_limit, cancelled_at,
               created_at, updated_at
        FROM user_profiles
        WHERE user_id = $1
    `
	var u model.User
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.Subscription.Tier,
		&u.Subscription.Status,
		&u.Subscription.PayPalSubscriptionID,
		&u.Subscription.CurrentPeriodEnd,
		&u.Subscription.VideosUsed,
		&u.Subscription.VideoLimit,
		&u.Subscription.CancelledAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user %s: %w", userID, err)
	}
	return &u, nil
}

// ConsumeVideoCredit is a single conditional update so two concurrent submits
// can never both pass the quota check.
func (r *userRepo) ConsumeVideoCredit(ctx context.Context, userID string) error {
	const q = `
        UPDATE user_profiles
        SET videos_used = videos_used + 1,
            updated_at = NOW()
        WHERE user_id = $1
          AND videos_used < video_limit
    `
	tag, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("consume video credit for user %s: %w", userID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	// Distinguish a missing profile from an exhausted quota.
	var exists bool
	const existsQ = `SELECT EXISTS (SELECT 1 FROM user_profiles WHERE user_id = $1)`
	if err := r.pool.QueryRow(ctx, existsQ, userID).Scan(&exists); err != nil {
		return fmt.Errorf("check user %s: %w", userID, err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return ErrVideoLimitExceeded
}
