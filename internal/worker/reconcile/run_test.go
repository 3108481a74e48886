package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelgen/internal/config"
	"reelgen/internal/model"
	"reelgen/internal/paypal"
	"reelgen/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriptionRepo struct {
	records []model.SubscriptionRecord
	synced  map[string]model.SubscriptionStatus
}

func newFakeSubscriptionRepo(records ...model.SubscriptionRecord) *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{
		records: records,
		synced:  make(map[string]model.SubscriptionStatus),
	}
}

func (r *fakeSubscriptionRepo) GetByUserID(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) Activate(ctx context.Context, p repository.ActivateParams) error {
	return nil
}

func (r *fakeSubscriptionRepo) Cancel(ctx context.Context, userID, paypalSubscriptionID string, at time.Time) error {
	return nil
}

func (r *fakeSubscriptionRepo) ListActive(ctx context.Context, limit int) ([]model.SubscriptionRecord, error) {
	return r.records, nil
}

func (r *fakeSubscriptionRepo) SyncRemoteStatus(ctx context.Context, paypalSubscriptionID string, status model.SubscriptionStatus, at time.Time) error {
	r.synced[paypalSubscriptionID] = status
	return nil
}

type fakePayPal struct {
	statuses map[string]string
	errs     map[string]error
}

func (f *fakePayPal) CreateSubscription(ctx context.Context, planID, userID string) (*paypal.Subscription, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePayPal) GetSubscription(ctx context.Context, subscriptionID string) (*paypal.Subscription, error) {
	if err := f.errs[subscriptionID]; err != nil {
		return nil, err
	}
	return &paypal.Subscription{ID: subscriptionID, Status: f.statuses[subscriptionID]}, nil
}

func (f *fakePayPal) CancelSubscription(ctx context.Context, subscriptionID, reason string) error {
	return errors.New("not implemented")
}

func (f *fakePayPal) CreateProduct(ctx context.Context, name, description string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakePayPal) CreatePlan(ctx context.Context, p paypal.PlanParams) (string, error) {
	return "", errors.New("not implemented")
}

func activeRecord(id string) model.SubscriptionRecord {
	return model.SubscriptionRecord{
		PayPalSubscriptionID: id,
		Status:               model.SubscriptionActive,
	}
}

func TestSweepConvergesDriftedSubscriptions(t *testing.T) {
	repo := newFakeSubscriptionRepo(
		activeRecord("I-KEEP"),
		activeRecord("I-SUSP"),
		activeRecord("I-EXP"),
	)
	payments := &fakePayPal{statuses: map[string]string{
		"I-KEEP": paypal.StatusActive,
		"I-SUSP": paypal.StatusSuspended,
		"I-EXP":  paypal.StatusExpired,
	}}

	err := sweep(context.Background(), zerolog.Nop(), &config.Config{ReconcileBatchSize: 50}, repo, payments)
	require.NoError(t, err)

	assert.NotContains(t, repo.synced, "I-KEEP", "matching state must not be rewritten")
	assert.Equal(t, model.SubscriptionSuspended, repo.synced["I-SUSP"])
	assert.Equal(t, model.SubscriptionExpired, repo.synced["I-EXP"])
}

func TestSweepSkipsUnreachableSubscriptions(t *testing.T) {
	repo := newFakeSubscriptionRepo(
		activeRecord("I-DOWN"),
		activeRecord("I-GONE"),
	)
	payments := &fakePayPal{
		statuses: map[string]string{"I-GONE": paypal.StatusCancelled},
		errs:     map[string]error{"I-DOWN": paypal.ErrProvider},
	}

	err := sweep(context.Background(), zerolog.Nop(), &config.Config{ReconcileBatchSize: 50}, repo, payments)
	require.NoError(t, err)

	assert.NotContains(t, repo.synced, "I-DOWN", "a fetch failure must not change local state")
	assert.Equal(t, model.SubscriptionCancelled, repo.synced["I-GONE"])
}

func TestRemoteToLocal(t *testing.T) {
	assert.Equal(t, model.SubscriptionActive, remoteToLocal(paypal.StatusActive))
	assert.Equal(t, model.SubscriptionSuspended, remoteToLocal(paypal.StatusSuspended))
	assert.Equal(t, model.SubscriptionCancelled, remoteToLocal(paypal.StatusCancelled))
	assert.Equal(t, model.SubscriptionExpired, remoteToLocal(paypal.StatusExpired))
	assert.Empty(t, remoteToLocal("APPROVAL_PENDING"))
}
