package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clashcoffee/storefront/internal/cancellation/domain"
	"github.com/clashcoffee/storefront/internal/cancellation/repository"
	paymentdomain "github.com/clashcoffee/storefront/internal/providers/payment/domain"
	subscriberdomain "github.com/clashcoffee/storefront/internal/subscriber/domain"
	subscriberrepository "github.com/clashcoffee/storefront/internal/subscriber/repository"
	"github.com/clashcoffee/storefront/internal/tier"
	"github.com/clashcoffee/storefront/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubProvider struct {
	active    []paymentdomain.Subscription
	cancelErr error
	canceled  []string
}

func (p *stubProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	return "", paymentdomain.ErrProviderUnavailable
}

func (p *stubProvider) CustomerEmail(ctx context.Context, customerRef string) (string, error) {
	return "", paymentdomain.ErrNotFound
}

func (p *stubProvider) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutSessionRequest) (paymentdomain.CheckoutSession, error) {
	return paymentdomain.CheckoutSession{}, paymentdomain.ErrProviderUnavailable
}

func (p *stubProvider) GetSubscription(ctx context.Context, subscriptionRef string) (paymentdomain.Subscription, error) {
	return paymentdomain.Subscription{}, paymentdomain.ErrNotFound
}

func (p *stubProvider) ListActiveSubscriptions(ctx context.Context, customerRef string) ([]paymentdomain.Subscription, error) {
	return p.active, nil
}

func (p *stubProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error {
	if p.cancelErr != nil {
		return p.cancelErr
	}
	p.canceled = append(p.canceled, subscriptionRef)
	return nil
}

func (p *stubProvider) ListProducts(ctx context.Context) ([]paymentdomain.Product, error) {
	return nil, nil
}

func newTestService(t *testing.T, provider *stubProvider) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := conn.AutoMigrate(&subscriberdomain.Subscriber{}, &domain.CancellationLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{
		DB:             conn,
		Log:            zap.NewNop(),
		GenID:          node,
		Repo:           repository.Provide(),
		SubscriberRepo: subscriberrepository.Provide(),
		Provider:       provider,
	})
	return svc, conn
}

func seedSubscriber(t *testing.T, conn *gorm.DB, customerRef *string, subscribedTier *tier.Tier) *subscriberdomain.Subscriber {
	t.Helper()

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	now := time.Now().UTC()
	sub := subscriberdomain.Subscriber{
		ID:                  node.Generate(),
		Email:               "alice@example.com",
		Role:                subscriberdomain.RoleUser,
		ExternalCustomerRef: customerRef,
		SubscriptionTier:    subscribedTier,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := conn.Create(&sub).Error; err != nil {
		t.Fatalf("seed subscriber: %v", err)
	}
	return &sub
}

func auditEntries(t *testing.T, conn *gorm.DB) []domain.CancellationLog {
	t.Helper()
	var logs []domain.CancellationLog
	if err := conn.Order("created_at asc").Find(&logs).Error; err != nil {
		t.Fatalf("load cancellation logs: %v", err)
	}
	return logs
}

func strptr(s string) *string { return &s }

func tierptr(id tier.Tier) *tier.Tier { return &id }

func TestCancelWithoutSubscriptionWritesFailedLog(t *testing.T) {
	svc, conn := newTestService(t, &stubProvider{})
	sub := seedSubscriber(t, conn, nil, nil)

	_, err := svc.Cancel(context.Background(), domain.CancelRequest{SubscriberID: sub.ID.String()})
	if !errors.Is(err, domain.ErrNoMatchingSubscription) {
		t.Fatalf("expected ErrNoMatchingSubscription, got %v", err)
	}

	logs := auditEntries(t, conn)
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(logs))
	}
	if logs[0].Status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %s", logs[0].Status)
	}
	if logs[0].ErrorMessage == nil {
		t.Fatal("expected error detail in failed entry")
	}
}

func TestCancelNoProviderMatchWritesFailedLog(t *testing.T) {
	provider := &stubProvider{active: []paymentdomain.Subscription{
		{Ref: "sub_other", PlanRef: "price_other", Status: paymentdomain.SubscriptionStatusActive},
	}}
	svc, conn := newTestService(t, provider)
	sub := seedSubscriber(t, conn, strptr("cus_1"), tierptr(tier.NeedCoffee))

	_, err := svc.Cancel(context.Background(), domain.CancelRequest{SubscriberID: sub.ID.String()})
	if !errors.Is(err, domain.ErrNoMatchingSubscription) {
		t.Fatalf("expected ErrNoMatchingSubscription, got %v", err)
	}
	if len(provider.canceled) != 0 {
		t.Fatalf("expected no provider cancel call, got %v", provider.canceled)
	}

	logs := auditEntries(t, conn)
	if len(logs) != 1 || logs[0].Status != domain.StatusFailed {
		t.Fatalf("expected single failed audit entry, got %+v", logs)
	}
}

func TestCancelSuccessKeepsTierUntilPeriodEnd(t *testing.T) {
	planRef, err := tier.PlanRef(tier.NeedCoffee)
	if err != nil {
		t.Fatalf("plan ref: %v", err)
	}
	provider := &stubProvider{active: []paymentdomain.Subscription{
		{Ref: "sub_1", PlanRef: planRef, Status: paymentdomain.SubscriptionStatusActive},
	}}
	svc, conn := newTestService(t, provider)
	sub := seedSubscriber(t, conn, strptr("cus_1"), tierptr(tier.NeedCoffee))

	resp, err := svc.Cancel(context.Background(), domain.CancelRequest{
		SubscriberID: sub.ID.String(),
		Reason:       "moving abroad",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if resp.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s", resp.Status)
	}
	if len(provider.canceled) != 1 || provider.canceled[0] != "sub_1" {
		t.Fatalf("expected cancel for sub_1, got %v", provider.canceled)
	}

	stored, err := subscriberrepository.Provide().FindByID(context.Background(), conn, sub.ID)
	if err != nil {
		t.Fatalf("find subscriber: %v", err)
	}
	if stored.SubscriptionTier == nil || *stored.SubscriptionTier != tier.NeedCoffee {
		t.Fatal("expected tier retained until the terminal lifecycle event")
	}
	if !stored.CancelAtPeriodEnd {
		t.Fatal("expected cancel_at_period_end set")
	}

	logs := auditEntries(t, conn)
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(logs))
	}
	if logs[0].Status != domain.StatusSuccess || logs[0].Reason != "moving abroad" {
		t.Fatalf("unexpected audit entry: %+v", logs[0])
	}
	if logs[0].Tier == nil || *logs[0].Tier != string(tier.NeedCoffee) {
		t.Fatalf("expected tier recorded in audit entry, got %v", logs[0].Tier)
	}
}

func TestCancelProviderFailureWritesFailedLog(t *testing.T) {
	planRef, err := tier.PlanRef(tier.NeedCoffee)
	if err != nil {
		t.Fatalf("plan ref: %v", err)
	}
	provider := &stubProvider{
		active: []paymentdomain.Subscription{
			{Ref: "sub_1", PlanRef: planRef, Status: paymentdomain.SubscriptionStatusActive},
		},
		cancelErr: paymentdomain.ErrProviderUnavailable,
	}
	svc, conn := newTestService(t, provider)
	sub := seedSubscriber(t, conn, strptr("cus_1"), tierptr(tier.NeedCoffee))

	_, err = svc.Cancel(context.Background(), domain.CancelRequest{SubscriberID: sub.ID.String()})
	if !errors.Is(err, paymentdomain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	stored, err := subscriberrepository.Provide().FindByID(context.Background(), conn, sub.ID)
	if err != nil {
		t.Fatalf("find subscriber: %v", err)
	}
	if stored.CancelAtPeriodEnd {
		t.Fatal("expected cancel_at_period_end untouched on provider failure")
	}

	logs := auditEntries(t, conn)
	if len(logs) != 1 || logs[0].Status != domain.StatusFailed {
		t.Fatalf("expected single failed audit entry, got %+v", logs)
	}
}

func TestCancelRejectsMalformedID(t *testing.T) {
	svc, _ := newTestService(t, &stubProvider{})

	_, err := svc.Cancel(context.Background(), domain.CancelRequest{SubscriberID: "not-a-number"})
	if !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
