package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelgen/internal/model"
	"reelgen/internal/paypal"
	"reelgen/internal/repository"

	"github.com/rs/zerolog"
)

type mockSubscriptionRepo struct {
	GetByUserIDFn func(ctx context.Context, userID string) (*model.SubscriptionRecord, error)
	activated     []repository.ActivateParams
	cancelled     []string
}

func (m *mockSubscriptionRepo) GetByUserID(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	return m.GetByUserIDFn(ctx, userID)
}

func (m *mockSubscriptionRepo) Activate(ctx context.Context, p repository.ActivateParams) error {
	m.activated = append(m.activated, p)
	return nil
}

func (m *mockSubscriptionRepo) Cancel(ctx context.Context, userID, paypalSubscriptionID string, at time.Time) error {
	m.cancelled = append(m.cancelled, paypalSubscriptionID)
	return nil
}

func (m *mockSubscriptionRepo) ListActive(ctx context.Context, limit int) ([]model.SubscriptionRecord, error) {
	return nil, nil
}

func (m *mockSubscriptionRepo) SyncRemoteStatus(ctx context.Context, paypalSubscriptionID string, status model.SubscriptionStatus, at time.Time) error {
	return nil
}

type mockPayPalClient struct {
	CreateSubscriptionFn func(ctx context.Context, planID, userID string) (*paypal.Subscription, error)
	GetSubscriptionFn    func(ctx context.Context, subscriptionID string) (*paypal.Subscription, error)
	CancelSubscriptionFn func(ctx context.Context, subscriptionID, reason string) error
	createCalls          int
	cancelCalls          int
}

func (m *mockPayPalClient) CreateSubscription(ctx context.Context, planID, userID string) (*paypal.Subscription, error) {
	m.createCalls++
	return m.CreateSubscriptionFn(ctx, planID, userID)
}

func (m *mockPayPalClient) GetSubscription(ctx context.Context, subscriptionID string) (*paypal.Subscription, error) {
	return m.GetSubscriptionFn(ctx, subscriptionID)
}

func (m *mockPayPalClient) CancelSubscription(ctx context.Context, subscriptionID, reason string) error {
	m.cancelCalls++
	if m.CancelSubscriptionFn != nil {
		return m.CancelSubscriptionFn(ctx, subscriptionID, reason)
	}
	return nil
}

func (m *mockPayPalClient) CreateProduct(ctx context.Context, name, description string) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockPayPalClient) CreatePlan(ctx context.Context, p paypal.PlanParams) (string, error) {
	return "", errors.New("not implemented")
}

func approvedSubscription(id, planID, status string, next time.Time) *paypal.Subscription {
	sub := &paypal.Subscription{
		ID:     id,
		Status: status,
		PlanID: planID,
		Links: []paypal.Link{
			{Rel: "approve", Href: "https://www.sandbox.paypal.com/webapps/billing/subscriptions?ba_token=BA-1"},
		},
	}
	sub.BillingInfo.NextBillingTime = next
	return sub
}

func TestSubscribeInvalidPlan(t *testing.T) {
	payments := &mockPayPalClient{}
	svc := NewSubscriptionService(&mockUserRepo{}, &mockSubscriptionRepo{}, payments, false, zerolog.Nop())

	_, err := svc.Subscribe(context.Background(), "user-1", "enterprise-yearly")
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
	if payments.createCalls != 0 {
		t.Error("an unknown plan must be rejected before any remote call")
	}
}

func TestSubscribeReturnsApprovalLink(t *testing.T) {
	payments := &mockPayPalClient{
		CreateSubscriptionFn: func(ctx context.Context, planID, userID string) (*paypal.Subscription, error) {
			return approvedSubscription("I-SUB1", planID, "APPROVAL_PENDING", time.Time{}), nil
		},
	}
	svc := NewSubscriptionService(&mockUserRepo{}, &mockSubscriptionRepo{}, payments, false, zerolog.Nop())

	res, err := svc.Subscribe(context.Background(), "user-1", "pro-monthly")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if res.SubscriptionID != "I-SUB1" {
		t.Errorf("subscription id = %s", res.SubscriptionID)
	}
	if res.ApprovalURL == "" {
		t.Error("approval URL must be surfaced to the caller")
	}
}

func TestSubscribeMissingApprovalLink(t *testing.T) {
	payments := &mockPayPalClient{
		CreateSubscriptionFn: func(ctx context.Context, planID, userID string) (*paypal.Subscription, error) {
			return &paypal.Subscription{ID: "I-SUB2", Status: "APPROVAL_PENDING", PlanID: planID}, nil
		},
	}
	svc := NewSubscriptionService(&mockUserRepo{}, &mockSubscriptionRepo{}, payments, false, zerolog.Nop())

	_, err := svc.Subscribe(context.Background(), "user-1", "pro-monthly")
	if !errors.Is(err, paypal.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestApproveActivatesAgencyPlan(t *testing.T) {
	periodEnd := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	payments := &mockPayPalClient{
		GetSubscriptionFn: func(ctx context.Context, subscriptionID string) (*paypal.Subscription, error) {
			return approvedSubscription(subscriptionID, "agency-monthly", paypal.StatusActive, periodEnd), nil
		},
	}
	subs := &mockSubscriptionRepo{}
	svc := NewSubscriptionService(&mockUserRepo{}, subs, payments, false, zerolog.Nop())

	if err := svc.Approve(context.Background(), "user-1", "I-AGENCY"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if len(subs.activated) != 1 {
		t.Fatalf("expected one activation, got %d", len(subs.activated))
	}
	got := subs.activated[0]
	if got.Tier != model.TierAgency {
		t.Errorf("tier = %s, want agency", got.Tier)
	}
	if !got.CurrentPeriodEnd.Equal(periodEnd) {
		t.Errorf("period end = %v, want %v", got.CurrentPeriodEnd, periodEnd)
	}
	if got.VideoLimit != model.UnlimitedVideos {
		t.Errorf("video limit = %d, want %d", got.VideoLimit, model.UnlimitedVideos)
	}
}

func TestApproveRejectsInactiveRemote(t *testing.T) {
	payments := &mockPayPalClient{
		GetSubscriptionFn: func(ctx context.Context, subscriptionID string) (*paypal.Subscription, error) {
			return approvedSubscription(subscriptionID, "pro-monthly", paypal.StatusSuspended, time.Time{}), nil
		},
	}
	subs := &mockSubscriptionRepo{}
	svc := NewSubscriptionService(&mockUserRepo{}, subs, payments, false, zerolog.Nop())

	err := svc.Approve(context.Background(), "user-1", "I-SUSP")
	if !errors.Is(err, ErrSubscriptionNotActive) {
		t.Fatalf("expected ErrSubscriptionNotActive, got %v", err)
	}
	if len(subs.activated) != 0 {
		t.Error("an inactive remote subscription must not be activated locally")
	}
}

func TestCancelWithoutSubscription(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, userID string) (*model.User, error) {
			return freeTierUser(0, 3), nil
		},
	}
	payments := &mockPayPalClient{}
	svc := NewSubscriptionService(users, &mockSubscriptionRepo{}, payments, false, zerolog.Nop())

	err := svc.Cancel(context.Background(), "user-1")
	if !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("expected ErrNoActiveSubscription, got %v", err)
	}
	if payments.cancelCalls != 0 {
		t.Error("no remote cancellation may be attempted without a stored subscription id")
	}
}

func TestCancelRemoteThenLocal(t *testing.T) {
	remoteID := "I-CANCEL"
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, userID string) (*model.User, error) {
			u := freeTierUser(0, model.UnlimitedVideos)
			u.Subscription.Tier = model.TierPro
			u.Subscription.Status = model.SubscriptionActive
			u.Subscription.PayPalSubscriptionID = &remoteID
			return u, nil
		},
	}
	payments := &mockPayPalClient{}
	subs := &mockSubscriptionRepo{}
	svc := NewSubscriptionService(users, subs, payments, false, zerolog.Nop())

	if err := svc.Cancel(context.Background(), "user-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if payments.cancelCalls != 1 {
		t.Errorf("remote cancel calls = %d, want 1", payments.cancelCalls)
	}
	if len(subs.cancelled) != 1 || subs.cancelled[0] != remoteID {
		t.Errorf("local cancellations = %v", subs.cancelled)
	}
}

func TestCancelRemoteFailureLeavesLocalUntouched(t *testing.T) {
	remoteID := "I-FAIL"
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, userID string) (*model.User, error) {
			u := freeTierUser(0, model.UnlimitedVideos)
			u.Subscription.Status = model.SubscriptionActive
			u.Subscription.PayPalSubscriptionID = &remoteID
			return u, nil
		},
	}
	payments := &mockPayPalClient{
		CancelSubscriptionFn: func(ctx context.Context, subscriptionID, reason string) error {
			return paypal.ErrProvider
		},
	}
	subs := &mockSubscriptionRepo{}
	svc := NewSubscriptionService(users, subs, payments, false, zerolog.Nop())

	err := svc.Cancel(context.Background(), "user-1")
	if !errors.Is(err, paypal.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if len(subs.cancelled) != 0 {
		t.Error("local state must not change when the remote cancellation fails")
	}
}

func TestStatusDegradesWhenRemoteUnavailable(t *testing.T) {
	remoteID := "I-DOWN"
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, userID string) (*model.User, error) {
			u := freeTierUser(0, model.UnlimitedVideos)
			u.Subscription.Tier = model.TierPro
			u.Subscription.Status = model.SubscriptionActive
			u.Subscription.PayPalSubscriptionID = &remoteID
			return u, nil
		},
	}
	payments := &mockPayPalClient{
		GetSubscriptionFn: func(ctx context.Context, subscriptionID string) (*paypal.Subscription, error) {
			return nil, paypal.ErrProvider
		},
	}

	svc := NewSubscriptionService(users, &mockSubscriptionRepo{}, payments, false, zerolog.Nop())
	status, err := svc.Status(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Remote != nil {
		t.Error("remote snapshot should be absent when the provider is unreachable")
	}
	if status.Local.Status != model.SubscriptionActive {
		t.Errorf("local status = %s", status.Local.Status)
	}

	strict := NewSubscriptionService(users, &mockSubscriptionRepo{}, payments, true, zerolog.Nop())
	if _, err := strict.Status(context.Background(), "user-1"); !errors.Is(err, paypal.ErrProvider) {
		t.Fatalf("strict mode should surface the provider error, got %v", err)
	}
}

func TestStatusWithoutRemoteSubscription(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, userID string) (*model.User, error) {
			return freeTierUser(1, 3), nil
		},
	}
	payments := &mockPayPalClient{
		GetSubscriptionFn: func(ctx context.Context, subscriptionID string) (*paypal.Subscription, error) {
			t.Fatal("no remote call expected for a user without a subscription")
			return nil, nil
		},
	}
	svc := NewSubscriptionService(users, &mockSubscriptionRepo{}, payments, false, zerolog.Nop())

	status, err := svc.Status(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Remote != nil {
		t.Error("remote snapshot should be nil")
	}
	if status.Local.Tier != model.TierFree {
		t.Errorf("tier = %s", status.Local.Tier)
	}
}
